package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Question is a persisted question about a room together with its generated answer.
// Answer is absent when the generation step failed.
type Question struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	RoomID    uuid.UUID         `json:"roomId" db:"room_id"`
	Question  string            `json:"question" db:"question"`
	Answer    mo.Option[string] `json:"answer" db:"-"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
}

// NewQuestion builds a question that has not been persisted yet.
// ID and CreatedAt are assigned by the database.
func NewQuestion(roomID uuid.UUID, question string, answer mo.Option[string]) *Question {
	return &Question{
		RoomID:   roomID,
		Question: question,
		Answer:   answer,
	}
}

// AnswerPtr returns the answer as a pointer, nil when absent
func (q *Question) AnswerPtr() *string {
	if v, ok := q.Answer.Get(); ok {
		return &v
	}
	return nil
}
