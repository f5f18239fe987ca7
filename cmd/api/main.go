// Command api runs the hookrelay HTTP server: notification settings, Web
// Push subscriptions, the SSE stream, callback triggers, and the operator
// cleanup endpoint.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hhttp "hookrelay/internal/handler/http"
	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/infra/adapter/persistence/postgres"
	"hookrelay/internal/infra/db"
	"hookrelay/internal/infra/notifier"
	"hookrelay/internal/observability/logging"
	"hookrelay/internal/realtime"
	"hookrelay/internal/usecase/cleanup"
	"hookrelay/internal/usecase/notify"
	"hookrelay/internal/usecase/settings"
	"hookrelay/internal/usecase/trigger"
	"hookrelay/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		log.Fatalf("auth configuration: %v", err)
	}

	webpushCfg := webPushConfigFromEnv()
	if err := webpushCfg.Validate(); err != nil {
		log.Fatalf("webpush configuration: %v", err)
	}

	pool := db.Open()
	defer func() { _ = pool.Close() }()

	// Repositories.
	settingsRepo := postgres.NewSettingsRepo(pool)
	subsRepo := postgres.NewPushSubscriptionRepo(pool)
	accountRepo := postgres.NewAccountRepo(pool)
	callbackRepo := postgres.NewCallbackRepo(pool)
	logRepo := postgres.NewTriggerLogRepo(pool)

	// Outbound senders and the in-process SSE registry.
	slackSender := notifier.NewSlackNotifier(notifier.SlackConfig{})
	pushSender := notifier.NewWebPushSender(webpushCfg)
	registry := realtime.NewRegistry()

	// Fan-out orchestrator over the three delivery channels.
	channels := []notify.Channel{
		notify.NewSlackChannel(slackSender),
		notify.NewPushChannel(pushSender),
		notify.NewRealtimeChannel(registry),
	}
	maxConcurrent := config.GetEnvInt("NOTIFY_MAX_CONCURRENT", 10)
	notifyService := notify.NewService(channels, settingsRepo, accountRepo, subsRepo,
		notify.NewContextBuilder(logRepo), maxConcurrent)

	// Use cases behind the HTTP surface.
	settingsService := settings.NewService(settingsRepo, subsRepo, accountRepo, slackSender)
	triggerService := trigger.NewService(callbackRepo, logRepo, notifyService)
	cleanupService := cleanup.NewService(subsRepo, pushSender,
		config.GetEnvDuration("CLEANUP_MAX_AGE", cleanup.DefaultMaxAge))

	rateLimiter := hhttp.NewUserRateLimiter(
		float64(config.GetEnvInt("RATE_LIMIT_RPS", 5)),
		config.GetEnvInt("RATE_LIMIT_BURST", 10),
	)

	router := hhttp.NewRouter(hhttp.RouterConfig{
		DB:             pool,
		Logger:         logger,
		Auth:           authCfg,
		RateLimit:      rateLimiter,
		Settings:       settingsService,
		Push:           settingsService,
		Trigger:        triggerService,
		Cleanup:        cleanupService,
		Notifier:       notifyService,
		Registry:       registry,
		VAPIDPublicKey: webpushCfg.VAPIDPublicKey,
		Version:        config.GetEnvString("APP_VERSION", "dev"),
	})

	addr := ":" + config.GetEnvString("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runServer(srv, notifyService, registry, logger)
}

// webPushConfigFromEnv loads the VAPID keypair and subscriber contact.
func webPushConfigFromEnv() notifier.WebPushConfig {
	return notifier.WebPushConfig{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber:      config.GetEnvString("VAPID_SUBSCRIBER", "mailto:ops@hookrelay.dev"),
		Timeout:         config.GetEnvDuration("WEBPUSH_TIMEOUT", 10*time.Second),
		TTL:             config.GetEnvInt("WEBPUSH_TTL", 3600),
	}
}

// runServer serves until SIGINT or SIGTERM, then drains in order: stop
// accepting requests, close live SSE connections, and wait for in-flight
// notification deliveries.
func runServer(srv *http.Server, notifier notify.Service, registry *realtime.Registry, logger *slog.Logger) {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	registry.CloseAll()
	if err := notifier.Shutdown(ctx); err != nil {
		logger.Error("notification drain", slog.Any("error", err))
	}

	logger.Info("server stopped")
}
