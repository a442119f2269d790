package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/atendezap/atende-ai-platform/internal/api/router"
	"github.com/atendezap/atende-ai-platform/internal/booking"
	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/internal/calendar"
	"github.com/atendezap/atende-ai-platform/internal/channels/telegram"
	"github.com/atendezap/atende-ai-platform/internal/channels/whatsapp"
	appconfig "github.com/atendezap/atende-ai-platform/internal/config"
	"github.com/atendezap/atende-ai-platform/internal/http/handlers"
	observemetrics "github.com/atendezap/atende-ai-platform/internal/observability/metrics"
	"github.com/atendezap/atende-ai-platform/internal/persona"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting atende-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	tenants := business.NewStore(redisClient)

	var repo booking.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = booking.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory appointment store")
		repo = booking.NewInMemoryRepository()
	}

	metrics := observemetrics.NewBookingMetrics(nil)

	var responder persona.Responder = persona.NewStaticResponder()
	if cfg.GeminiAPIKey != "" {
		gemini, err := persona.NewGeminiResponder(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to init gemini responder", "error", err)
			os.Exit(1)
		}
		defer func() { _ = gemini.Close() }()
		responder = persona.NewFallbackResponder(gemini, persona.NewStaticResponder())
	} else {
		logger.Warn("GEMINI_API_KEY not set, persona replies are static")
	}

	calendarFor := func(ctx context.Context, tenant *business.Config) (booking.CalendarAdapter, error) {
		if tenant.Calendar == nil || tenant.Calendar.RefreshToken == "" {
			return nil, nil
		}
		return calendar.NewGoogleAdapter(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret,
			tenant.Calendar.RefreshToken, tenant.Calendar.CalendarID)
	}

	holds := booking.NewHoldManager(repo, cfg.HoldTTL, nil, logger, metrics)
	confirmer := booking.NewConfirmer(repo, calendarFor, nil, logger, metrics)
	orchestrator := booking.NewOrchestrator(booking.OrchestratorConfig{
		Holds:     holds,
		Confirmer: confirmer,
		Persona:   responder,
		Repo:      repo,
		HoldTTL:   cfg.HoldTTL,
		Logger:    logger,
	})

	webhookHandler := handlers.NewMessagingWebhookHandler(handlers.MessagingWebhookConfig{
		Tenants:      tenants,
		Orchestrator: orchestrator,
		Logger:       logger,
		Metrics:      metrics,
	})
	slotsHandler := handlers.NewAvailableSlotsHandler(tenants, orchestrator, logger)

	notify := func(ctx context.Context, tenant *business.Config, customerID, text string) error {
		switch {
		case tenant.WhatsApp != nil && tenant.WhatsApp.Active:
			client := whatsapp.NewClient(tenant.WhatsApp.ServerURL, tenant.WhatsApp.APIKey, tenant.WhatsApp.InstanceName)
			_, err := client.SendText(ctx, customerID, text)
			return err
		case tenant.Telegram != nil && tenant.Telegram.Active:
			return telegram.NewClient(tenant.Telegram.BotToken).SendMessage(ctx, customerID, text)
		}
		return nil
	}
	checkerFor := func(ctx context.Context, tenant *business.Config) (booking.EventChecker, error) {
		if tenant.Calendar == nil || tenant.Calendar.RefreshToken == "" {
			return nil, nil
		}
		return calendar.NewGoogleAdapter(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret,
			tenant.Calendar.RefreshToken, tenant.Calendar.CalendarID)
	}
	calendarSync := booking.NewCalendarSync(repo, checkerFor, notify, logger)
	syncHandler := handlers.NewCalendarSyncHandler(tenants, calendarSync, cfg.CalendarSyncSecret, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		MessagingWebhook:   webhookHandler,
		AvailableSlots:     slotsHandler,
		CalendarSync:       syncHandler,
		HealthHandler:      healthCheck(redisClient),
		MetricsHandler:     promhttp.Handler(),
		PortalJWTSecret:    cfg.PortalJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WebhookTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func healthCheck(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := `{"status":"ok"}`
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			status = http.StatusServiceUnavailable
			body = `{"status":"degraded","redis":"unreachable"}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
