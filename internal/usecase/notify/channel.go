// Package notify dispatches trigger outcomes to a user's enabled notification
// channels. It implements the fan-out pipeline: after a callback fires, the
// orchestrator assembles the user's settings, tier, and day-window statistics,
// then delivers to each eligible channel concurrently with circuit breakers
// and a bounded worker pool. Channel failures are isolated from each other and
// never surface to the trigger path.
package notify

import (
	"context"

	"hookrelay/internal/domain/entity"
)

// DeliveryRequest bundles everything a channel needs to render and deliver
// one trigger outcome. The orchestrator assembles it once per event and hands
// the same request to every channel, so assembly cost is paid once regardless
// of how many channels fire.
type DeliveryRequest struct {
	// Event is the trigger outcome being announced. Never nil.
	Event *entity.TriggerEvent

	// Stats is the day-window context shown alongside the notification.
	Stats entity.ChannelContext

	// Settings is the user's notification preferences with tier gates
	// already applied. Never nil; users without a stored row get defaults.
	Settings *entity.NotificationSettings

	// Tier is the user's subscription tier.
	Tier entity.Tier

	// Subscription is the user's Web Push subscription, nil when absent.
	Subscription *entity.PushSubscription
}

// Channel is one notification delivery channel (Slack, Web Push, realtime).
//
// Thread safety: all methods must be safe for concurrent use; the orchestrator
// calls Send from multiple goroutines.
//
// Context handling: implementations must respect cancellation and timeout,
// and should extract request_id from the context for logging.
type Channel interface {
	// Name returns the channel identifier used for logging, metrics labels,
	// and circuit breaker names (lowercase, e.g. "slack", "push").
	Name() string

	// Eligible reports whether this channel should fire for the request,
	// based on the user's settings, outcome toggles, and available state
	// (e.g. a stored push subscription). Ineligible channels are skipped
	// without a goroutine or a metrics sample.
	Eligible(req *DeliveryRequest) bool

	// Send delivers the outcome to this channel. Called only when Eligible
	// returned true. Errors are logged and counted by the orchestrator but
	// never propagate to the trigger path; a returned error classified as
	// an expired push subscription additionally causes the stored
	// subscription to be deleted.
	Send(ctx context.Context, req *DeliveryRequest) error
}
