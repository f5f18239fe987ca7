package notify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
)

// ContextBuilder computes the day-window statistics attached to every
// notification: total triggers today, success rate, and average response
// time. The three aggregates come from independent queries and are fetched
// concurrently.
type ContextBuilder struct {
	logs repository.TriggerLogRepository
}

// NewContextBuilder creates a ContextBuilder over the given trigger log store.
func NewContextBuilder(logs repository.TriggerLogRepository) *ContextBuilder {
	return &ContextBuilder{logs: logs}
}

// dayWindow returns [local midnight, next local midnight) around now.
// The window is computed in now's location so "today" matches what the
// user's dashboard shows, not a UTC day boundary.
func dayWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// Build computes the ChannelContext for a user at the given instant.
//
// Statistics are recomputed from the log store on every call; nothing is
// cached across events, so the numbers a notification carries reflect the
// state at dispatch time, including the event being announced when it was
// already logged.
func (b *ContextBuilder) Build(ctx context.Context, userID int64, now time.Time) (entity.ChannelContext, error) {
	start, end := dayWindow(now)

	var (
		total   int64
		success int64
		avg     *float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = b.logs.CountInWindow(gctx, userID, start, end, repository.TriggerLogFilter{})
		return err
	})
	g.Go(func() error {
		succeeded := true
		var err error
		success, err = b.logs.CountInWindow(gctx, userID, start, end, repository.TriggerLogFilter{Success: &succeeded})
		return err
	})
	g.Go(func() error {
		var err error
		avg, err = b.logs.AvgResponseTimeInWindow(gctx, userID, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return entity.ChannelContext{}, fmt.Errorf("build channel context: %w", err)
	}

	avgMs := 0.0
	if avg != nil {
		avgMs = *avg
	}
	return entity.NewChannelContext(total, success, avgMs), nil
}
