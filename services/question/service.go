package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/upb/room-qa/internal/observability"
	"github.com/upb/room-qa/internal/rag"
	"github.com/upb/room-qa/models"
	"github.com/upb/room-qa/repositories"
	"github.com/upb/room-qa/services"
	"go.uber.org/zap"
)

// Listing bounds for ListQuestions
const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// Timeouts bound the external call made by each stage. Zero means no stage deadline.
type Timeouts struct {
	Embedding   time.Duration
	Retrieval   time.Duration
	Generation  time.Duration
	Persistence time.Duration
}

// Service answers questions about a room and records them
type Service struct {
	embedder    rag.Embedder
	store       rag.SimilarityStore
	synthesizer rag.AnswerSynthesizer
	questions   repositories.QuestionRepository

	assembler *rag.Assembler
	retrieval rag.RetrievalOptions
	timeouts  Timeouts
	logger    *observability.ContextLogger
	metrics   observability.Metrics
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = observability.NewContextLogger(logger)
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m observability.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRetrievalOptions overrides the similarity threshold and result limit
func WithRetrievalOptions(opts rag.RetrievalOptions) Option {
	return func(s *Service) {
		s.retrieval = opts
	}
}

// WithAssembler sets the context assembler, e.g. one with a token budget
func WithAssembler(a *rag.Assembler) Option {
	return func(s *Service) {
		s.assembler = a
	}
}

// WithTimeouts sets per stage deadlines
func WithTimeouts(t Timeouts) Option {
	return func(s *Service) {
		s.timeouts = t
	}
}

// NewService creates a question service
func NewService(
	embedder rag.Embedder,
	store rag.SimilarityStore,
	synthesizer rag.AnswerSynthesizer,
	questions repositories.QuestionRepository,
	opts ...Option,
) *Service {
	s := &Service{
		embedder:    embedder,
		store:       store,
		synthesizer: synthesizer,
		questions:   questions,
		retrieval:   rag.DefaultRetrievalOptions(),
		logger:      observability.NewContextLogger(zap.NewNop()),
		metrics:     observability.NopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateQuestion runs the answer pipeline for a question about roomID and persists the result.
// A failed synthesis still stores the question, with no answer.
func (s *Service) CreateQuestion(ctx context.Context, roomID uuid.UUID, text string) (*Result, error) {
	if roomID == uuid.Nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidRoomID.Message, nil).
			WithDetail("roomId", "must be a non-nil uuid")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrEmptyQuestion.Message, nil).
			WithDetail("question", "must not be blank")
	}

	pc := newPipelineContext(roomID, text)
	s.logger.Info(ctx, "starting question pipeline",
		zap.String("room_id", roomID.String()),
		zap.Int("question_length", len(text)))

	result, err := s.run(ctx, pc)
	if err != nil {
		s.metrics.RecordQuestion(observability.OutcomeFailed)
		s.logger.Error(ctx, "question pipeline failed",
			zap.String("room_id", roomID.String()),
			zap.String("stage", string(pc.Stage)),
			zap.Duration("elapsed", time.Since(pc.StartTime)),
			zap.Error(err))
		return nil, err
	}

	outcome := observability.OutcomeAnswered
	if pc.answerFailed() {
		outcome = observability.OutcomeAnswerFailed
	}
	s.metrics.RecordQuestion(outcome)
	s.logger.Info(ctx, "question pipeline completed",
		zap.String("question_id", result.QuestionID.String()),
		zap.String("outcome", outcome),
		zap.Int("matches", result.Matches),
		zap.Duration("elapsed", time.Since(pc.StartTime)))

	return result, nil
}

func (s *Service) run(ctx context.Context, pc *PipelineContext) (*Result, error) {
	// Embedding
	err := s.stage(ctx, StageEmbedding, s.timeouts.Embedding, func(ctx context.Context) error {
		vector, err := s.embedder.Embed(ctx, pc.Question)
		if err != nil {
			return err
		}
		pc.Vector = vector
		return nil
	})
	if err != nil {
		return nil, services.NewEmbeddingFailure(ensureWrapped(rag.ErrEmbedding, err))
	}

	// Retrieving
	if err := s.transition(ctx, pc, StageRetrieving); err != nil {
		return nil, err
	}
	err = s.stage(ctx, StageRetrieving, s.timeouts.Retrieval, func(ctx context.Context) error {
		matches, err := s.store.TopSimilar(ctx, pc.RoomID, pc.Vector, s.retrieval)
		if err != nil {
			return err
		}
		pc.Matches = matches
		return nil
	})
	if err != nil {
		return nil, services.NewRetrievalFailure(ensureWrapped(rag.ErrRetrieval, err))
	}
	s.metrics.ObserveMatches(len(pc.Matches))

	// Assembling
	if err := s.transition(ctx, pc, StageAssembling); err != nil {
		return nil, err
	}
	assembleStart := time.Now()
	pc.Context = s.assembler.Assemble(pc.Matches)
	pc.Template = rag.SelectTemplate(pc.Context)
	s.metrics.ObserveStage(string(StageAssembling), time.Since(assembleStart), nil)
	s.logger.Debug(ctx, "context assembled",
		zap.Int("matches", len(pc.Matches)),
		zap.Int("context_length", len(pc.Context)),
		zap.Stringer("template", pc.Template))

	// Synthesizing
	if err := s.transition(ctx, pc, StageSynthesizing); err != nil {
		return nil, err
	}
	err = s.stage(ctx, StageSynthesizing, s.timeouts.Generation, func(ctx context.Context) error {
		answer, err := s.synthesizer.Synthesize(ctx, pc.Question, pc.Context)
		if err != nil {
			return err
		}
		pc.Answer = mo.Some(answer)
		return nil
	})
	if err != nil {
		pc.AnswerError = ensureWrapped(rag.ErrSynthesis, err)
		pc.Answer = mo.None[string]()
		s.logger.Warn(ctx, "answer generation failed, storing question without answer",
			zap.String("room_id", pc.RoomID.String()),
			zap.Error(pc.AnswerError))
		if err := s.transition(ctx, pc, StageAnswerFailed); err != nil {
			return nil, err
		}
	}

	// Persisting
	if err := s.transition(ctx, pc, StagePersisting); err != nil {
		return nil, err
	}
	var stored *models.Question
	err = s.stage(ctx, StagePersisting, s.timeouts.Persistence, func(ctx context.Context) error {
		q, err := s.questions.Create(ctx, models.NewQuestion(pc.RoomID, pc.Question, pc.Answer))
		if err != nil {
			return err
		}
		if q == nil || q.ID == uuid.Nil {
			return repositories.ErrNoRecord
		}
		stored = q
		return nil
	})
	if err != nil {
		return nil, services.NewPersistenceFailure(ensureWrapped(rag.ErrPersistence, err))
	}

	if err := s.transition(ctx, pc, StageDone); err != nil {
		return nil, err
	}

	return &Result{
		QuestionID: stored.ID,
		Answer:     pc.Answer,
		Matches:    len(pc.Matches),
		Template:   pc.Template,
		Stages:     pc.Trace,
	}, nil
}

// stage runs fn under an optional deadline and records its duration
func (s *Service) stage(ctx context.Context, stage Stage, timeout time.Duration, fn func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveStage(string(stage), time.Since(start), err)
	return err
}

func (s *Service) transition(ctx context.Context, pc *PipelineContext, to Stage) error {
	from := pc.Stage
	if err := pc.advance(to); err != nil {
		return services.WrapInternal("question pipeline", err)
	}
	s.logger.Debug(ctx, "pipeline transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}

// ListQuestions returns the questions recorded for a room, newest first
func (s *Service) ListQuestions(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Question, error) {
	if roomID == uuid.Nil {
		return nil, services.ErrInvalidRoomID
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		return nil, services.ErrInvalidListSize
	}

	questions, err := s.questions.ListByRoom(ctx, roomID, limit)
	if err != nil {
		s.logger.Error(ctx, "failed to list questions",
			zap.String("room_id", roomID.String()),
			zap.Error(err))
		return nil, services.WrapInternal("failed to list questions", err)
	}
	return questions, nil
}

// ensureWrapped makes sure err matches sentinel under errors.Is
func ensureWrapped(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
