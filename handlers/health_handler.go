package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/room-qa/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker is a dependency that can report whether it is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db        HealthChecker
	providers []string
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// service runs on the in-memory store.
func NewHealthHandler(db HealthChecker, providers []string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		providers: providers,
		logger:    logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only; returns 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	switch {
	case h.db == nil:
		checks["database"] = "not_configured"
	case h.db.HealthCheck(ctx) != nil:
		h.logger.Warn("database readiness check failed")
		checks["database"] = "unhealthy"
		allHealthy = false
	default:
		checks["database"] = "healthy"
	}

	if len(h.providers) == 0 {
		checks["providers"] = "none_configured"
		allHealthy = false
	} else {
		checks["providers"] = "configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
