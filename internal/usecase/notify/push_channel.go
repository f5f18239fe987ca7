package notify

import (
	"context"
	"fmt"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/infra/notifier"
)

// PushSender is the delivery half of the push channel, satisfied by
// notifier.WebPushSender.
type PushSender interface {
	Send(ctx context.Context, sub *entity.PushSubscription, payload notifier.PushPayload) error
}

// PushChannel delivers trigger outcomes as Web Push notifications to the
// user's subscribed browser.
type PushChannel struct {
	sender PushSender
}

// NewPushChannel creates a push channel over the given sender.
func NewPushChannel(sender PushSender) *PushChannel {
	return &PushChannel{sender: sender}
}

// Name returns the channel identifier "push".
func (c *PushChannel) Name() string {
	return "push"
}

// Eligible reports whether push should fire: the channel must be enabled,
// the toggle matching the event's outcome must be on, and the user must
// have a stored subscription.
func (c *PushChannel) Eligible(req *DeliveryRequest) bool {
	if !req.Settings.PushEnabled || req.Subscription == nil {
		return false
	}
	if req.Event.Success {
		return req.Settings.PushOnSuccess
	}
	return req.Settings.PushOnFailure
}

// Send encrypts and delivers the outcome payload.
//
// Errors from the sender pass through unwrapped in meaning: a
// SubscriptionExpiredError must stay classifiable with
// notifier.IsSubscriptionExpired so the orchestrator can delete the stored
// subscription.
func (c *PushChannel) Send(ctx context.Context, req *DeliveryRequest) error {
	event := req.Event

	title := "Webhook trigger succeeded"
	body := fmt.Sprintf("%s responded", event.CallbackName)
	if event.StatusCode != nil && event.ResponseTimeMs != nil {
		body = fmt.Sprintf("%s responded %d in %d ms", event.CallbackName, *event.StatusCode, *event.ResponseTimeMs)
	}
	if !event.Success {
		title = "Webhook trigger failed"
		body = fmt.Sprintf("%s failed", event.CallbackName)
		if event.Error != "" {
			body = fmt.Sprintf("%s failed: %s", event.CallbackName, event.Error)
		}
	}

	payload := notifier.PushPayload{
		Title: title,
		Body:  body,
		Data: map[string]any{
			"callback_id":          event.CallbackID,
			"success":              event.Success,
			"triggered_at":         event.TriggeredAt,
			"total_triggers_today": req.Stats.TotalTriggersToday,
			"success_rate":         req.Stats.SuccessRate,
		},
	}

	return c.sender.Send(ctx, req.Subscription, payload)
}

// compile-time interface checks
var (
	_ Channel    = (*PushChannel)(nil)
	_ PushSender = (*notifier.WebPushSender)(nil)
)
