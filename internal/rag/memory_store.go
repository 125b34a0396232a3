package rag

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fragment is a transcript fragment held by MemoryStore
type Fragment struct {
	ID            uuid.UUID
	RoomID        uuid.UUID
	Transcription string
	Embedding     EmbeddingVector
	CreatedAt     time.Time
}

// MemoryStore is an in-process SimilarityStore for local runs and tests
type MemoryStore struct {
	mu        sync.RWMutex
	fragments []Fragment
	dimension int
}

// NewMemoryStore creates an empty store. A zero dimension accepts any vector length.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension}
}

// Add stores a fragment, assigning an id and timestamp when missing
func (s *MemoryStore) Add(f Fragment) (Fragment, error) {
	if s.dimension > 0 && len(f.Embedding) != s.dimension {
		return Fragment{}, fmt.Errorf("expected dimension %d, got %d", s.dimension, len(f.Embedding))
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = append(s.fragments, f)
	return f, nil
}

// Len returns the number of stored fragments
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fragments)
}

// TopSimilar ranks the room's fragments by cosine similarity to vector.
// Zero-norm fragments are never returned, matching the pgvector query.
func (s *MemoryStore) TopSimilar(ctx context.Context, roomID uuid.UUID, vector EmbeddingVector, opts RetrievalOptions) ([]SimilarityMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if opts.Limit <= 0 {
		return []SimilarityMatch{}, nil
	}

	type scored struct {
		fragment   Fragment
		similarity float64
	}

	s.mu.RLock()
	candidates := make([]scored, 0, len(s.fragments))
	for _, f := range s.fragments {
		if f.RoomID != roomID || f.Embedding.IsZero() {
			continue
		}
		sim := CosineSimilarity(vector, f.Embedding)
		if sim < opts.MinScore {
			continue
		}
		candidates = append(candidates, scored{fragment: f, similarity: sim})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].fragment.CreatedAt.Before(candidates[j].fragment.CreatedAt)
	})

	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	matches := make([]SimilarityMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = SimilarityMatch{
			FragmentID:    c.fragment.ID,
			Transcription: c.fragment.Transcription,
			Similarity:    c.similarity,
		}
	}
	return matches, nil
}
