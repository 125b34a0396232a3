package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/upb/room-qa/models"
	"github.com/upb/room-qa/services"
	"github.com/upb/room-qa/services/question"
	"github.com/upb/room-qa/utils"
	"go.uber.org/zap"
)

// CreateQuestionRequest is the body of POST /rooms/{roomId}/questions
type CreateQuestionRequest struct {
	Question string `json:"question" validate:"required,notblank"`
}

// CreateQuestionResponse is returned with 201. Answer is null when no answer could be generated.
type CreateQuestionResponse struct {
	QuestionID uuid.UUID `json:"questionId"`
	Answer     *string   `json:"answer"`
}

// QuestionResponse is one entry of GET /rooms/{roomId}/questions
type QuestionResponse struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    *string   `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuestionService defines the question operations used by the handler
type QuestionService interface {
	CreateQuestion(ctx context.Context, roomID uuid.UUID, text string) (*question.Result, error)
	ListQuestions(ctx context.Context, roomID uuid.UUID, limit int) ([]*models.Question, error)
}

// QuestionHandler handles question-related HTTP requests
type QuestionHandler struct {
	service QuestionService
	logger  *zap.Logger
}

// NewQuestionHandler creates a new QuestionHandler
func NewQuestionHandler(service QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreateQuestion handles POST /rooms/{roomId}/questions
func (h *QuestionHandler) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debug("invalid question body", zap.String("request_id", requestID), zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.CreateQuestion(ctx, roomID, req.Question)
	if err != nil {
		HandleServiceError(w, err, h.logger.With(
			zap.String("request_id", requestID),
			zap.String("room_id", roomID.String())))
		return
	}

	response := CreateQuestionResponse{
		QuestionID: result.QuestionID,
		Answer:     result.AnswerPtr(),
	}
	if err := utils.WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("failed to write create question response", zap.Error(err))
	}
}

// HandleListQuestions handles GET /rooms/{roomId}/questions
func (h *QuestionHandler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.roomID(w, r)
	if !ok {
		return
	}

	limit := question.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil {
			err = utils.ValidateNumericRange(n, "limit", 1, question.MaxListLimit)
		}
		if err != nil {
			_ = utils.WriteBadRequest(w, "invalid limit", map[string]interface{}{"limit": err.Error()})
			return
		}
		limit = n
	}

	questions, err := h.service.ListQuestions(r.Context(), roomID, limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	response := make([]QuestionResponse, len(questions))
	for i, q := range questions {
		response[i] = QuestionResponse{
			ID:        q.ID,
			Question:  q.Question,
			Answer:    q.AnswerPtr(),
			CreatedAt: q.CreatedAt,
		}
	}
	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write list questions response", zap.Error(err))
	}
}

func (h *QuestionHandler) roomID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	roomID, err := utils.ParseUUID(chi.URLParam(r, "roomId"), "roomId")
	if err != nil {
		HandleServiceError(w, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidRoomID.Message, err).
			WithDetail("roomId", err.Error()), h.logger)
		return uuid.Nil, false
	}
	return roomID, true
}
