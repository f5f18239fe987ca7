package repository

import (
	"context"
	"time"

	"hookrelay/internal/domain/entity"
)

// TriggerLogFilter narrows window queries over trigger logs.
type TriggerLogFilter struct {
	// Success, when non-nil, restricts the count to rows with the given
	// outcome. The success column is a boolean on every log row; counting by
	// it directly avoids matching on free-text event descriptions.
	Success *bool
}

// TriggerLogRepository records and aggregates callback invocation outcomes.
type TriggerLogRepository interface {
	// Insert records the outcome of a single callback invocation.
	Insert(ctx context.Context, event *entity.TriggerEvent) error

	// CountInWindow counts log rows for a user's callbacks with
	// triggered_at in [start, end), optionally filtered by outcome.
	CountInWindow(ctx context.Context, userID int64, start, end time.Time, filter TriggerLogFilter) (int64, error)

	// AvgResponseTimeInWindow averages the non-null response times in
	// [start, end) for a user's callbacks. Returns (nil, nil) when the
	// window holds no timed rows.
	AvgResponseTimeInWindow(ctx context.Context, userID int64, start, end time.Time) (*float64, error)
}
