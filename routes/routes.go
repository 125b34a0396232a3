package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/room-qa/app"
	"github.com/upb/room-qa/handlers"
	"github.com/upb/room-qa/middleware"
	"github.com/upb/room-qa/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	var db handlers.HealthChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, deps.ProviderRegistry.ListProviders(), deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if cfg.Observability.MetricsEnabled {
		r.Handle(cfg.Observability.MetricsPath, promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	questions := handlers.NewQuestionHandler(deps.QuestionService, deps.Logger)
	r.Route("/rooms/{roomId}/questions", func(r chi.Router) {
		r.Post("/", questions.HandleCreateQuestion)
		r.Get("/", questions.HandleListQuestions)
	})

	// 404 and 405 handlers
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, "endpoint not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
