package question

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/upb/room-qa/internal/rag"
)

// Stage is a step of the question pipeline
type Stage string

const (
	StageEmbedding    Stage = "embedding"
	StageRetrieving   Stage = "retrieving"
	StageAssembling   Stage = "assembling"
	StageSynthesizing Stage = "synthesizing"
	StageAnswerFailed Stage = "answer_failed"
	StagePersisting   Stage = "persisting"
	StageDone         Stage = "done"
)

// transitions lists the stages reachable from each stage.
// AnswerFailed can only be entered from Synthesizing and never leads back to an answer.
var transitions = map[Stage][]Stage{
	StageEmbedding:    {StageRetrieving},
	StageRetrieving:   {StageAssembling},
	StageAssembling:   {StageSynthesizing},
	StageSynthesizing: {StagePersisting, StageAnswerFailed},
	StageAnswerFailed: {StagePersisting},
	StagePersisting:   {StageDone},
}

// CanTransition reports whether the pipeline may move from one stage to another
func CanTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PipelineContext carries the state of one question through the pipeline
type PipelineContext struct {
	RoomID    uuid.UUID
	Question  string
	StartTime time.Time

	Stage  Stage
	Trace  []Stage
	Vector rag.EmbeddingVector

	Matches  []rag.SimilarityMatch
	Context  rag.ContextBlock
	Template rag.TemplateKind

	Answer      mo.Option[string]
	AnswerError error
}

func newPipelineContext(roomID uuid.UUID, question string) *PipelineContext {
	return &PipelineContext{
		RoomID:    roomID,
		Question:  question,
		StartTime: time.Now(),
		Stage:     StageEmbedding,
		Trace:     []Stage{StageEmbedding},
		Answer:    mo.None[string](),
	}
}

// advance moves to the next stage, rejecting transitions the pipeline does not allow
func (p *PipelineContext) advance(to Stage) error {
	if !CanTransition(p.Stage, to) {
		return fmt.Errorf("invalid pipeline transition %s -> %s", p.Stage, to)
	}
	p.Stage = to
	p.Trace = append(p.Trace, to)
	return nil
}

// answerFailed reports whether synthesis was abandoned for this question
func (p *PipelineContext) answerFailed() bool {
	for _, s := range p.Trace {
		if s == StageAnswerFailed {
			return true
		}
	}
	return false
}

// Result is the outcome of a successful CreateQuestion call
type Result struct {
	QuestionID uuid.UUID
	Answer     mo.Option[string]
	Matches    int
	Template   rag.TemplateKind
	Stages     []Stage
}

// AnswerPtr returns the answer or nil when none was produced
func (r *Result) AnswerPtr() *string {
	if v, ok := r.Answer.Get(); ok {
		return &v
	}
	return nil
}
