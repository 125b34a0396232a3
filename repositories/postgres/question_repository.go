package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/upb/room-qa/models"
	"github.com/upb/room-qa/repositories"
	"go.uber.org/zap"
)

// QuestionRepository implements the repositories.QuestionRepository interface
type QuestionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *DB, logger *zap.Logger) repositories.QuestionRepository {
	return &QuestionRepository{
		db:     db,
		logger: logger,
	}
}

type questionRow struct {
	ID        uuid.UUID      `db:"id"`
	RoomID    uuid.UUID      `db:"room_id"`
	Question  string         `db:"question"`
	Answer    sql.NullString `db:"answer"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r questionRow) toModel() *models.Question {
	answer := mo.None[string]()
	if r.Answer.Valid {
		answer = mo.Some(r.Answer.String)
	}
	return &models.Question{
		ID:        r.ID,
		RoomID:    r.RoomID,
		Question:  r.Question,
		Answer:    answer,
		CreatedAt: r.CreatedAt,
	}
}

// Create inserts a question and returns the stored row
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	query := `
		INSERT INTO questions (room_id, question, answer)
		VALUES ($1, $2, $3)
		RETURNING id, room_id, question, answer, created_at
	`

	var row questionRow
	err := r.db.QueryRowxContext(ctx, query, q.RoomID, q.Question, q.AnswerPtr()).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to create question: %w", repositories.ErrNoRecord)
		}
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	r.logger.Debug("question created",
		zap.String("id", row.ID.String()),
		zap.String("room_id", row.RoomID.String()),
		zap.Bool("answered", row.Answer.Valid))

	return row.toModel(), nil
}

// ListByRoom returns the questions of a room, newest first
func (r *QuestionRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Question, error) {
	query := `
		SELECT id, room_id, question, answer, created_at
		FROM questions
		WHERE room_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	var rows []questionRow
	if err := r.db.SelectContext(ctx, &rows, query, roomID, limit); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	questions := make([]*models.Question, len(rows))
	for i, row := range rows {
		questions[i] = row.toModel()
	}
	return questions, nil
}
