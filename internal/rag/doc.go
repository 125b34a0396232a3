// Package rag holds the retrieval-augmented answer pipeline building blocks.
//
// This package provides:
//   - Embedding validation and an optional Redis-backed embedding cache
//   - The similarity store contract and an in-memory implementation
//   - Context assembly from ranked transcript fragments
//   - Prompt templates and answer synthesis over a generation provider
//
// The stages are composed by the question service; nothing here persists
// questions or talks HTTP.
package rag
