package notify

import "errors"

// Sentinel errors for the notification fan-out pipeline.
var (
	// ErrInvalidEvent indicates the trigger event is nil or missing required
	// fields. Dispatch is skipped for invalid events instead of spawning
	// goroutines that would fail.
	ErrInvalidEvent = errors.New("invalid trigger event")

	// ErrDeliveryFailed indicates a channel could not deliver. Channels
	// whose underlying transport reports only success/failure (Slack) wrap
	// it so the orchestrator's breaker and metrics see a real error.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrNotificationDropped indicates a notification was dropped while
	// waiting for a worker slot. Non-critical; used for observability.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")
)
