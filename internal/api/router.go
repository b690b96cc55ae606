package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/programs"
	"github.com/spigell/welfare-interviewer/internal/ranking"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

func NewRouter(interviews Interviewer, catalogue *programs.Catalogue, optimizer *selection.Optimizer, engine *ranking.Engine, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RequestMetrics)

	sessions := NewSessionsHandler(interviews, logger)
	catalog := NewCatalogueHandler(catalogue, optimizer, engine)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", sessions.Create)
		r.Get("/sessions/{id}", sessions.Get)
		r.Delete("/sessions/{id}", sessions.Delete)
		r.Post("/sessions/{id}/messages", sessions.Message)

		r.Get("/programs", catalog.Programs)
		r.Post("/rank", catalog.Rank)
		r.Post("/fields", catalog.Fields)
	})

	r.Mount("/", NewMetricsRouter())

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
