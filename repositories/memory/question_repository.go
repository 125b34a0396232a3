// Package memory holds in-process repositories used with STORE_BACKEND=memory.
// Nothing survives a restart.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/room-qa/models"
	"github.com/upb/room-qa/repositories"
)

// QuestionRepository implements repositories.QuestionRepository in memory
type QuestionRepository struct {
	mu        sync.RWMutex
	questions []*models.Question
	now       func() time.Time
}

// NewQuestionRepository creates an empty repository
func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{now: time.Now}
}

var _ repositories.QuestionRepository = (*QuestionRepository)(nil)

// Create stores a copy of q with a fresh id and timestamp
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q == nil || strings.TrimSpace(q.Question) == "" {
		return nil, errors.New("question text is required")
	}

	stored := *q
	stored.ID = uuid.New()
	stored.CreatedAt = r.now().UTC()

	r.mu.Lock()
	r.questions = append(r.questions, &stored)
	r.mu.Unlock()

	out := stored
	return &out, nil
}

// ListByRoom returns up to limit questions of a room, newest first
func (r *QuestionRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]*models.Question, 0)
	for _, q := range r.questions {
		if q.RoomID == roomID {
			c := *q
			out = append(out, &c)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
