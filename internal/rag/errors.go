package rag

import "errors"

// Pipeline stage errors. Adapters wrap them with %w so callers can use errors.Is.
var (
	// ErrEmbedding means the embedding provider returned no usable vector
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrieval means the similarity query itself failed
	ErrRetrieval = errors.New("retrieval failed")

	// ErrSynthesis means no answer text could be extracted from the generation provider
	ErrSynthesis = errors.New("synthesis failed")

	// ErrPersistence means the question insert did not yield a stored record
	ErrPersistence = errors.New("persistence failed")
)
