package notify

import (
	"context"
	"fmt"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/infra/notifier"
)

// SlackSender is the delivery half of the Slack channel, satisfied by
// notifier.SlackNotifier. It reports success as a bool because Slack
// delivery is best-effort and the underlying notifier never raises.
type SlackSender interface {
	Notify(ctx context.Context, webhookURL string, event *entity.TriggerEvent, stats entity.ChannelContext) bool
}

// SlackChannel delivers trigger outcomes to the user's Slack Incoming
// Webhook. Unlike push and realtime, the destination is per-user state
// carried in the settings row rather than a registered device.
type SlackChannel struct {
	sender SlackSender
}

// NewSlackChannel creates a Slack channel over the given sender.
func NewSlackChannel(sender SlackSender) *SlackChannel {
	return &SlackChannel{sender: sender}
}

// Name returns the channel identifier "slack".
func (c *SlackChannel) Name() string {
	return "slack"
}

// Eligible reports whether the user has a Slack webhook configured.
// Slack has no per-outcome toggles: a configured webhook receives both
// successes and failures. The URL's prefix was validated at settings-save
// time and is not re-checked here.
func (c *SlackChannel) Eligible(req *DeliveryRequest) bool {
	return req.Settings.SlackWebhookURL != ""
}

// Send posts the outcome to the user's webhook. The sender logs its own
// failures and reports them as false; that is wrapped into ErrDeliveryFailed
// so the orchestrator's circuit breaker and failure metrics observe it.
func (c *SlackChannel) Send(ctx context.Context, req *DeliveryRequest) error {
	if ok := c.sender.Notify(ctx, req.Settings.SlackWebhookURL, req.Event, req.Stats); !ok {
		return fmt.Errorf("%w: slack webhook for user %d", ErrDeliveryFailed, req.Event.UserID)
	}
	return nil
}

// compile-time interface checks
var (
	_ Channel     = (*SlackChannel)(nil)
	_ SlackSender = (*notifier.SlackNotifier)(nil)
)
