package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/upb/room-qa/internal/rag"
	"github.com/upb/room-qa/models"
	"github.com/upb/room-qa/repositories"
	"go.uber.org/zap"
)

// TranscriptRepository implements the repositories.TranscriptRepository interface
type TranscriptRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *DB, logger *zap.Logger) repositories.TranscriptRepository {
	return &TranscriptRepository{
		db:     db,
		logger: logger,
	}
}

// TopSimilar ranks the room's fragments by cosine similarity using pgvector.
// Similarity is 1 - cosine distance; ties keep insertion order.
// Cosine distance to a zero-norm vector is NaN, which Postgres sorts above
// every number, so those rows are filtered out explicitly.
func (r *TranscriptRepository) TopSimilar(ctx context.Context, roomID uuid.UUID, vector rag.EmbeddingVector, opts rag.RetrievalOptions) ([]rag.SimilarityMatch, error) {
	query := `
		SELECT id, transcription, 1 - (embeddings <=> $2::vector) AS similarity
		FROM audio_chunks
		WHERE room_id = $1
		  AND (embeddings <=> $2::vector) <> 'NaN'::float8
		  AND 1 - (embeddings <=> $2::vector) >= $3
		ORDER BY embeddings <=> $2::vector, created_at, id
		LIMIT $4
	`

	matches := []rag.SimilarityMatch{}
	err := r.db.SelectContext(ctx, &matches, query,
		roomID,
		pgvector.NewVector(vector),
		opts.MinScore,
		opts.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity query: %w", rag.ErrRetrieval, err)
	}

	r.logger.Debug("similar fragments retrieved",
		zap.String("room_id", roomID.String()),
		zap.Int("matches", len(matches)))

	return matches, nil
}

// Create stores a transcript fragment
func (r *TranscriptRepository) Create(ctx context.Context, f *models.TranscriptFragment) error {
	query := `
		INSERT INTO audio_chunks (id, room_id, transcription, embeddings, created_at)
		VALUES (:id, :room_id, :transcription, :embeddings, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		return fmt.Errorf("failed to create transcript fragment: %w", err)
	}

	r.logger.Debug("transcript fragment created",
		zap.String("id", f.ID.String()),
		zap.String("room_id", f.RoomID.String()))
	return nil
}

// CountByRoom returns the number of fragments stored for a room
func (r *TranscriptRepository) CountByRoom(ctx context.Context, roomID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM audio_chunks WHERE room_id = $1`, roomID); err != nil {
		return 0, fmt.Errorf("failed to count transcript fragments: %w", err)
	}
	return count, nil
}
