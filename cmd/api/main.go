package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openpoke/decidim-module-chatbot/internal/api/router"
	"github.com/openpoke/decidim-module-chatbot/internal/channels/instagram"
	"github.com/openpoke/decidim-module-chatbot/internal/channels/whatsapp"
	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	appconfig "github.com/openpoke/decidim-module-chatbot/internal/config"
	"github.com/openpoke/decidim-module-chatbot/internal/directory"
	"github.com/openpoke/decidim-module-chatbot/internal/http/handlers"
	"github.com/openpoke/decidim-module-chatbot/internal/observability/metrics"
	"github.com/openpoke/decidim-module-chatbot/internal/workflows"
	"github.com/openpoke/decidim-module-chatbot/pkg/logging"
)

func main() {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting chatbot webhook server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	metricsHandler, webhookMetrics := setupWebhookMetrics()

	store := chat.NewPgStore(pool)
	resolver := directory.NewPgResolver(pool)
	locales := directory.NewLocaleResolver(resolver, cfg.DefaultLocale)

	providers := setupProviders(cfg, logger, webhookMetrics)

	workflowRegistry := chat.NewWorkflowRegistry()
	actions := directory.NewActionRegistry()
	workflows.Register(workflowRegistry, workflows.Deps{
		Directory:     resolver,
		Actions:       actions,
		CarouselLimit: cfg.MeetingsCarouselLimit,
	})

	processor := chat.NewProcessor(store, providers, workflowRegistry, locales, workflows.Messages(), logger)
	webhookHandler := handlers.NewWebhookHandler(processor, webhookMetrics, logger)

	r := router.New(&router.Config{
		Webhooks:       webhookHandler,
		MetricsHandler: metricsHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupWebhookMetrics builds an isolated Prometheus registry with the
// webhook collectors and its scrape handler.
func setupWebhookMetrics() (http.Handler, *metrics.WebhookMetrics) {
	registry := prometheus.NewRegistry()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.NewWebhookMetrics(registry)
}

// setupProviders registers every configured channel adapter.
func setupProviders(cfg *appconfig.Config, logger *logging.Logger, m *metrics.WebhookMetrics) *chat.ProviderRegistry {
	providers := chat.NewProviderRegistry()
	providers.Register(whatsapp.ProviderName, whatsapp.Factory(whatsapp.Config{
		VerifyToken: cfg.WhatsAppVerifyToken,
		AccessToken: cfg.WhatsAppAccessToken,
		GraphAPIURL: cfg.WhatsAppGraphAPIURL,
		HTTPTimeout: cfg.WhatsAppHTTPTimeout,
		Logger:      logger,
		Metrics:     m,
	}))
	providers.Register(instagram.ProviderName, instagram.Factory(instagram.Config{
		VerifyToken:     cfg.InstagramVerifyToken,
		AppSecret:       cfg.InstagramAppSecret,
		PageAccessToken: cfg.InstagramPageAccessToken,
		GraphAPIURL:     cfg.InstagramGraphAPIURL,
		HTTPTimeout:     cfg.InstagramHTTPTimeout,
		Logger:          logger,
		Metrics:         m,
	}))
	return providers
}
