// Package http wires the conversion API's handlers and middleware into a
// route tree and wraps the listener lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/http/handlers"
	"github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	ConvertHandler *handlers.ConvertHandler
	HealthHandler  *handlers.HealthHandler
	InfoHandler    *handlers.InfoHandler

	// Middleware
	CORSMiddleware      *middleware.CORSMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	LoggingConfig       middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	AppMetrics       *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration.  It wires global middleware, the public service and health
// endpoints, and the conversion endpoint (also mounted under /api/v1) into a
// single http.Handler suitable for use with http.Server.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.LoggingConfig))
	}
	if cfg.AppMetrics != nil {
		r.Use(middleware.RequestMetrics(cfg.AppMetrics))
	}
	// Throttling sits innermost so rejected requests are still logged and
	// counted by the middleware above.
	if cfg.RateLimitMiddleware != nil {
		r.Use(cfg.RateLimitMiddleware.Handler)
	}

	// --- Service information ---
	if cfg.InfoHandler != nil {
		r.Get("/", cfg.InfoHandler.Root)
		r.Get("/docs", cfg.InfoHandler.Docs)
	}

	// --- Health endpoints ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
		// Route name used before /healthz; kept for existing clients.
		r.Get("/health", cfg.HealthHandler.Liveness)
	}

	// --- Metrics endpoint ---
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	// --- Conversion endpoints ---
	registerConvertRoutes(r, cfg.ConvertHandler)
	r.Route("/api/v1", func(api chi.Router) {
		registerConvertRoutes(api, cfg.ConvertHandler)
	})

	return r
}

// registerConvertRoutes mounts the conversion endpoint on the given router.
func registerConvertRoutes(r chi.Router, h *handlers.ConvertHandler) {
	if h == nil {
		return
	}
	r.Post("/convert", h.Convert)
}
