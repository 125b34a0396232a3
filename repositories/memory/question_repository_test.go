package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/room-qa/models"
)

func TestQuestionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	roomID := uuid.New()
	first, err := repo.Create(ctx, models.NewQuestion(roomID, "first", mo.Some("a")))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, "a", *first.AnswerPtr())

	second, err := repo.Create(ctx, models.NewQuestion(roomID, "second", mo.None[string]()))
	require.NoError(t, err)
	assert.Nil(t, second.AnswerPtr())

	_, err = repo.Create(ctx, models.NewQuestion(uuid.New(), "elsewhere", mo.None[string]()))
	require.NoError(t, err)

	got, err := repo.ListByRoom(ctx, roomID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Question)
	assert.Equal(t, "first", got[1].Question)

	got, err = repo.ListByRoom(ctx, roomID, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	empty, err := repo.ListByRoom(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestQuestionRepository_Rejects(t *testing.T) {
	repo := NewQuestionRepository()

	_, err := repo.Create(context.Background(), models.NewQuestion(uuid.New(), "  ", mo.None[string]()))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.Create(ctx, models.NewQuestion(uuid.New(), "q", mo.None[string]()))
	assert.ErrorIs(t, err, context.Canceled)
}
