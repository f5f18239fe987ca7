// Command worker runs the scheduled stale-subscription sweep. It probes Web
// Push endpoints that have not been touched in months and deletes the ones
// whose push service reports them gone, keeping dispatch fan-out from
// wasting deliveries on dead browsers.
package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"hookrelay/internal/handler/http/respond"
	"hookrelay/internal/infra/adapter/persistence/postgres"
	"hookrelay/internal/infra/db"
	"hookrelay/internal/infra/notifier"
	"hookrelay/internal/observability/logging"
	"hookrelay/internal/usecase/cleanup"
	"hookrelay/pkg/config"
)

// sweepTimeout bounds one full sweep. Probing is serialized with a 10 second
// cap per endpoint, so a large backlog needs room.
const sweepTimeout = 15 * time.Minute

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	webpushCfg := notifier.WebPushConfig{
		VAPIDPublicKey:  config.GetEnvString("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: config.GetEnvString("VAPID_PRIVATE_KEY", ""),
		Subscriber:      config.GetEnvString("VAPID_SUBSCRIBER", "mailto:ops@hookrelay.dev"),
	}
	if err := webpushCfg.Validate(); err != nil {
		log.Fatalf("webpush configuration: %v", err)
	}

	pool := db.Open()
	defer func() { _ = pool.Close() }()

	sweeper := cleanup.NewService(
		postgres.NewPushSubscriptionRepo(pool),
		notifier.NewWebPushSender(webpushCfg),
		config.GetEnvDuration("CLEANUP_MAX_AGE", cleanup.DefaultMaxAge),
	)

	loc, err := time.LoadLocation(config.GetEnvString("CRON_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatalf("invalid CRON_TIMEZONE: %v", err)
	}

	schedule := config.GetEnvString("CLEANUP_CRON", "30 4 * * *")
	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(schedule, func() { runSweep(sweeper, logger) }); err != nil {
		log.Fatalf("invalid CLEANUP_CRON %q: %v", schedule, err)
	}

	healthSrv := startMetricsServer(pool, logger)
	healthSrv.SetReady(true)

	scheduler.Start()
	logger.Info("cleanup worker started",
		slog.String("schedule", schedule),
		slog.String("timezone", loc.String()))

	if config.GetEnvBool("CLEANUP_RUN_ON_START", false) {
		runSweep(sweeper, logger)
	}

	select {}
}

// runSweep executes one sweep with a bounded context and logs the outcome.
func runSweep(sweeper *cleanup.Service, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		logger.Error("subscription sweep failed",
			slog.String("error", respond.SanitizeError(err)),
			slog.Duration("elapsed", time.Since(start)))
		return
	}

	logger.Info("subscription sweep completed",
		slog.Int("scanned", result.Scanned),
		slog.Int("deleted", result.Deleted),
		slog.Duration("elapsed", time.Since(start)))
}
