package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/driftboard/driftboard/internal/api/handlers"
	"github.com/driftboard/driftboard/internal/api/middleware"
	"github.com/driftboard/driftboard/internal/config"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/metrics"
)

type Handlers struct {
	Health *handlers.HealthHandler
	Drift  *handlers.DriftHandler
	Alert  *handlers.AlertHandler
	Audit  *handlers.AuditHandler
	Events *handlers.EventHub
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.Actor())
	r.Use(metrics.Middleware)
	r.Use(middleware.RateLimit(cfg.Drift.RateLimitPerSecond, cfg.Drift.RateLimitBurst))

	// Health checks and operational endpoints
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/events", h.Events.HandleConnection)

	// Drifts
	r.Route("/api/v1/drifts", func(r chi.Router) {
		r.Get("/", h.Drift.List)
		r.Post("/", h.Drift.Create)
		r.Get("/summary", h.Drift.Summary)
		r.Get("/{id}", h.Drift.Get)
		r.Post("/{id}/triage", h.Drift.Triage)
		r.Post("/{id}/approve", h.Drift.Approve)
		r.Post("/{id}/reject", h.Drift.Reject)
		r.Post("/{id}/resolve", h.Drift.Resolve)
	})

	// Alerts
	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Get("/", h.Alert.List)
		r.Get("/unread-count", h.Alert.UnreadCount)
		r.Post("/{id}/read", h.Alert.MarkRead)
	})

	// Audit logs
	r.Get("/api/v1/audit-logs", h.Audit.List)

	return r
}
