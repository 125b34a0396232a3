package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// TranscriptFragment is a chunk of a room's transcription with its embedding.
// Fragments are written by the ingestion side and only read here.
type TranscriptFragment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	RoomID        uuid.UUID       `json:"roomId" db:"room_id"`
	Transcription string          `json:"transcription" db:"transcription"`
	Embeddings    pgvector.Vector `json:"-" db:"embeddings"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// NewTranscriptFragment creates a fragment with a fresh ID
func NewTranscriptFragment(roomID uuid.UUID, transcription string, embedding []float32) *TranscriptFragment {
	return &TranscriptFragment{
		ID:            uuid.New(),
		RoomID:        roomID,
		Transcription: transcription,
		Embeddings:    pgvector.NewVector(embedding),
		CreatedAt:     time.Now().UTC(),
	}
}
