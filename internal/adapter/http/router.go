package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/adapter/http/handler"
	"github.com/iho/cashbook/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CashbookHandler *handler.CashbookHandler
	EntryHandler    *handler.EntryHandler
	HealthHandler   *handler.HealthHandler
	Logger          zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", cfg.CashbookHandler.Snapshot)
		r.Get("/totals", cfg.CashbookHandler.Totals)
		r.Get("/archive", cfg.CashbookHandler.Archive)
		r.Get("/status", cfg.CashbookHandler.Status)

		r.Post("/dayend", cfg.CashbookHandler.DayEnd)
		r.Put("/role", cfg.CashbookHandler.SetRole)

		r.Route("/outparty", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.CreateOutParty)
			r.Patch("/{id}", cfg.EntryHandler.EditOutParty)
			r.Delete("/{id}", cfg.EntryHandler.DeleteOutParty)
		})

		r.Route("/main", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.CreateMain)
			r.Patch("/{id}", cfg.EntryHandler.EditMain)
			r.Delete("/{id}", cfg.EntryHandler.DeleteMain)
		})
	})

	return r
}
