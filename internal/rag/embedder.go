package rag

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/upb/room-qa/services/providers"
)

// ValidatingEmbedder adapts an embedding provider to the pipeline contract.
// Every failure it reports wraps ErrEmbedding.
type ValidatingEmbedder struct {
	provider  providers.EmbeddingProvider
	dimension int
}

// NewValidatingEmbedder wraps provider. A dimension of zero disables the length check.
func NewValidatingEmbedder(provider providers.EmbeddingProvider, dimension int) *ValidatingEmbedder {
	return &ValidatingEmbedder{provider: provider, dimension: dimension}
}

// Embed returns a non-zero vector of finite elements whose length matches the configured dimension
func (e *ValidatingEmbedder) Embed(ctx context.Context, text string) (EmbeddingVector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrEmbedding)
	}

	values, err := e.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEmbedding, e.provider.Name(), err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s returned no vector", ErrEmbedding, e.provider.Name())
	}
	if e.dimension > 0 && len(values) != e.dimension {
		return nil, fmt.Errorf("%w: expected dimension %d, got %d", ErrEmbedding, e.dimension, len(values))
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", ErrEmbedding, i)
		}
	}
	vector := EmbeddingVector(values)
	if vector.IsZero() {
		return nil, fmt.Errorf("%w: %s returned a zero vector", ErrEmbedding, e.provider.Name())
	}

	return vector, nil
}
