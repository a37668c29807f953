// Package http wires the ingestion API route tree and its server.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ArchIntel/internal/interfaces/http/handlers"
	"github.com/turtacn/ArchIntel/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.
type RouterConfig struct {
	NotesHandler    *handlers.NotesHandler
	EntitiesHandler *handlers.EntitiesHandler
	HealthHandler   *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree: public probes, the metrics
// endpoint, and the versioned API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, "/healthz", "/readyz", "/metrics"))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if h := cfg.NotesHandler; h != nil {
			api.Post("/notes", h.Submit)
			api.Get("/notes/{noteID}", h.Get)
		}

		if h := cfg.EntitiesHandler; h != nil {
			api.Route("/offices", func(or chi.Router) {
				or.Get("/", h.ListOffices)
				or.Get("/{officeID}", h.GetOffice)
				or.Get("/{officeID}/workforce", h.GetWorkforce)
			})
			api.Route("/projects", func(pr chi.Router) {
				pr.Get("/", h.ListProjects)
				pr.Get("/{projectID}", h.GetProject)
			})
			api.Route("/regulations", func(rr chi.Router) {
				rr.Get("/", h.ListRegulations)
				rr.Get("/{regulationID}", h.GetRegulation)
			})
			api.Get("/relationships", h.ListRelationships)
		}
	})

	return r
}
