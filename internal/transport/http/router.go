// Package httptransport is the thin HTTP layer over the import
// pipeline. Handlers delegate to domain services and never embed
// business logic.
package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"regsync/internal/importer"
	"regsync/internal/records/models"
	"regsync/internal/taskaudit"
	"regsync/pkg/platform/events"
	"regsync/pkg/platform/middleware/auth"
	"regsync/pkg/platform/middleware/requesttime"
)

// Handler wires the API endpoints to their collaborators.
type Handler struct {
	logger    *zap.Logger
	importer  *importer.Service
	tasks     taskaudit.Store
	validator *auth.Validator
	events    *events.Publisher
	health    []func(*http.Request) error
}

// New creates the HTTP handler. The publisher may be nil when event
// publishing is disabled.
func New(logger *zap.Logger, svc *importer.Service, tasks taskaudit.Store, validator *auth.Validator, pub *events.Publisher) *Handler {
	return &Handler{
		logger:    logger,
		importer:  svc,
		tasks:     tasks,
		validator: validator,
		events:    pub,
	}
}

// AddHealthCheck registers a dependency probe for the health endpoint.
func (h *Handler) AddHealthCheck(check func(r *http.Request) error) {
	h.health = append(h.health, check)
}

// Router builds the chi router with the full middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requesttime.Middleware)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireAuth(h.validator, h.logger))
		r.Route("/imports", func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleSysadmin))
			r.Post("/", h.handleStartImport)
			r.Get("/{taskID}", h.handleGetImport)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.health {
		if err := check(r); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
