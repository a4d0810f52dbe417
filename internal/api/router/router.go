// Package router assembles the HTTP routing tree.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openpoke/decidim-module-chatbot/internal/http/handlers"
)

// Config holds router configuration
type Config struct {
	Webhooks       *handlers.WebhookHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", cfg.Webhooks.HealthCheck)
	r.Route("/chatbot/webhooks/{organization}/{provider}", func(r chi.Router) {
		r.Get("/", cfg.Webhooks.HandleVerify)
		r.Post("/", cfg.Webhooks.HandleReceive)
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
