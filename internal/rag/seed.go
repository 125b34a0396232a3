package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// SeedFragment is one transcript fragment of a memory store fixture
type SeedFragment struct {
	RoomID        uuid.UUID `json:"roomId"`
	Transcription string    `json:"transcription"`
}

// Seed reads a JSON array of SeedFragment from r, embeds each transcription
// and adds it to the store. It returns the number of fragments added.
func (s *MemoryStore) Seed(ctx context.Context, embedder Embedder, r io.Reader) (int, error) {
	var fragments []SeedFragment
	if err := json.NewDecoder(r).Decode(&fragments); err != nil {
		return 0, fmt.Errorf("decode seed fixture: %w", err)
	}

	for i, f := range fragments {
		if f.RoomID == uuid.Nil {
			return i, fmt.Errorf("seed fragment %d: roomId is required", i)
		}
		vector, err := embedder.Embed(ctx, f.Transcription)
		if err != nil {
			return i, fmt.Errorf("seed fragment %d: %w", i, err)
		}
		if _, err := s.Add(Fragment{RoomID: f.RoomID, Transcription: f.Transcription, Embedding: vector}); err != nil {
			return i, fmt.Errorf("seed fragment %d: %w", i, err)
		}
	}
	return len(fragments), nil
}
