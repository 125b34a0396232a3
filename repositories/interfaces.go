package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/room-qa/internal/rag"
	"github.com/upb/room-qa/models"
)

// ErrNoRecord is returned when an insert did not return the stored row
var ErrNoRecord = errors.New("no record returned")

// QuestionRepository handles question data operations
type QuestionRepository interface {
	// Create inserts a question and returns the stored record with its assigned ID
	Create(ctx context.Context, question *models.Question) (*models.Question, error)

	// ListByRoom returns the questions of a room, newest first
	ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Question, error)
}

// TranscriptRepository handles transcript fragment data operations
type TranscriptRepository interface {
	rag.SimilarityStore

	// Create stores a transcript fragment with its embedding
	Create(ctx context.Context, fragment *models.TranscriptFragment) error

	// CountByRoom returns the number of fragments stored for a room
	CountByRoom(ctx context.Context, roomID uuid.UUID) (int, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Questions   QuestionRepository
	Transcripts TranscriptRepository
}
