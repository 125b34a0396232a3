package rag

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Default retrieval policy
const (
	DefaultMinScore = 0.7
	DefaultLimit    = 3
)

// EmbeddingVector is a fixed-length dense vector
type EmbeddingVector []float32

// SimilarityMatch is a transcript fragment ranked against a query vector.
// Similarity is 1 - cosine distance, so 1 means identical direction.
type SimilarityMatch struct {
	FragmentID    uuid.UUID `json:"fragmentId" db:"id"`
	Transcription string    `json:"transcription" db:"transcription"`
	Similarity    float64   `json:"similarity" db:"similarity"`
}

// RetrievalOptions configures a similarity query
type RetrievalOptions struct {
	MinScore float64
	Limit    int
}

// DefaultRetrievalOptions returns the 0.7 / top-3 policy
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{MinScore: DefaultMinScore, Limit: DefaultLimit}
}

// ContextBlock is the text handed to the synthesizer as grounding
type ContextBlock string

// IsEmpty reports whether the block carries no usable context
func (c ContextBlock) IsEmpty() bool {
	return strings.TrimSpace(string(c)) == ""
}

// String returns the raw block
func (c ContextBlock) String() string {
	return string(c)
}

// Embedder converts text into a query vector
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingVector, error)
}

// SimilarityStore returns the fragments of a room most similar to a vector.
// Matches are ordered by descending similarity and none falls below opts.MinScore.
// An empty result is not an error.
type SimilarityStore interface {
	TopSimilar(ctx context.Context, roomID uuid.UUID, vector EmbeddingVector, opts RetrievalOptions) ([]SimilarityMatch, error)
}

// AnswerSynthesizer turns a question and its context into answer text
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, block ContextBlock) (string, error)
}
