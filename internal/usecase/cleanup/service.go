// Package cleanup implements the stale push subscription sweep. Push
// subscriptions silently die when a browser profile is deleted or the push
// service rotates endpoints; the dispatch path only discovers this for users
// whose triggers fire. The sweep probes subscriptions that have not been
// refreshed recently and deletes the ones the push service reports gone.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/infra/notifier"
	"hookrelay/internal/repository"
)

// DefaultMaxAge is how long a subscription may go without a refresh before
// the sweep considers it a probe candidate. Service workers re-subscribe on
// activation, so a record untouched for 60 days usually belongs to a browser
// that is gone.
const DefaultMaxAge = 60 * 24 * time.Hour

// probeTimeout bounds each individual endpoint probe.
const probeTimeout = 10 * time.Second

// Prober checks whether a push endpoint is still live, satisfied by
// notifier.WebPushSender.
type Prober interface {
	Probe(ctx context.Context, sub *entity.PushSubscription) error
}

// Result summarizes one sweep.
type Result struct {
	// Scanned is the number of stale subscriptions probed.
	Scanned int

	// Deleted is the number of subscriptions removed because the push
	// service reported their endpoint gone.
	Deleted int
}

// Service runs the stale-subscription sweep. It is operator-triggered (admin
// endpoint or scheduled worker), never part of the dispatch path.
type Service struct {
	subs   repository.PushSubscriptionRepository
	prober Prober
	maxAge time.Duration
}

// NewService creates a cleanup service. maxAge <= 0 falls back to
// DefaultMaxAge.
func NewService(subs repository.PushSubscriptionRepository, prober Prober, maxAge time.Duration) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{subs: subs, prober: prober, maxAge: maxAge}
}

// Sweep probes every subscription older than the configured age and deletes
// the ones whose endpoint the push service reports gone (404/410).
//
// Probes run sequentially: the sweep is a background maintenance job and a
// gentle request rate against the push service matters more than finishing
// fast. Only a definitive "endpoint gone" deletes a record; transient probe
// failures (timeouts, 5xx) leave the subscription in place for the next
// sweep.
//
// Returns the sweep summary. The listing error is the only fatal one; a
// partial sweep after individual probe errors still returns a Result.
func (s *Service) Sweep(ctx context.Context) (Result, error) {
	cutoff := time.Now().Add(-s.maxAge)

	stale, err := s.subs.ListOlderThan(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("Sweep: %w", err)
	}

	slog.Info("starting push subscription sweep",
		slog.Time("cutoff", cutoff),
		slog.Int("candidates", len(stale)))

	result := Result{}
	for _, sub := range stale {
		if err := ctx.Err(); err != nil {
			slog.Warn("push subscription sweep interrupted",
				slog.Int("scanned", result.Scanned),
				slog.Int("deleted", result.Deleted))
			return result, fmt.Errorf("Sweep: %w", err)
		}

		result.Scanned++
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := s.prober.Probe(probeCtx, sub)
		cancel()

		if err == nil {
			continue
		}
		if !notifier.IsSubscriptionExpired(err) {
			slog.Debug("subscription probe inconclusive, keeping record",
				slog.Int64("user_id", sub.UserID),
				slog.Any("error", err))
			continue
		}

		if err := s.subs.Delete(ctx, sub.UserID); err != nil {
			slog.Warn("failed to delete expired push subscription",
				slog.Int64("user_id", sub.UserID),
				slog.Any("error", err))
			continue
		}
		result.Deleted++
		slog.Info("deleted expired push subscription",
			slog.Int64("user_id", sub.UserID))
	}

	slog.Info("push subscription sweep complete",
		slog.Int("scanned", result.Scanned),
		slog.Int("deleted", result.Deleted))
	return result, nil
}
