// Package router assembles the HTTP surface: public messaging webhooks and
// the JWT-protected portal API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atendezap/atende-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/atendezap/atende-ai-platform/internal/http/middleware"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	MessagingWebhook *handlers.MessagingWebhookHandler
	AvailableSlots   *handlers.AvailableSlotsHandler
	CalendarSync     *handlers.CalendarSyncHandler
	HealthHandler    http.HandlerFunc
	MetricsHandler   http.Handler

	PortalJWTSecret    string
	CORSAllowedOrigins []string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints: channel webhooks, health, metrics.
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.MessagingWebhook != nil {
			public.Route("/webhooks/{platform}", func(r chi.Router) {
				r.Get("/", cfg.MessagingWebhook.HandleVerification)
				r.Post("/", cfg.MessagingWebhook.HandleInbound)
			})
		}
		if cfg.CalendarSync != nil {
			// Cron-triggered; authenticated by X-Cron-Secret, not JWT.
			public.Post("/internal/calendar-sync", cfg.CalendarSync.Handle)
		}
	})

	// Portal API, tenant-scoped through the JWT claims.
	if cfg.AvailableSlots != nil {
		r.Route("/api/v1", func(api chi.Router) {
			api.Use(httpmiddleware.PortalJWT(cfg.PortalJWTSecret))
			api.Get("/available-slots", cfg.AvailableSlots.Handle)
		})
	}

	return r
}
