package notify

import (
	"context"

	"hookrelay/internal/domain/entity"
)

// RealtimeSender is the delivery half of the realtime channel, satisfied by
// realtime.Registry. SendToUser reports false when the user has no live
// connection or the write failed; the registry handles dead-connection
// removal itself.
type RealtimeSender interface {
	SendToUser(userID int64, notification *entity.Notification) bool
}

// RealtimeChannel pushes trigger outcomes over the user's live SSE
// connection, if any. Delivery to an offline user is a silent no-op, not a
// failure: unlike push or Slack there is no stored destination to be wrong
// about, so an absent connection carries no signal worth a metric or a
// breaker count.
type RealtimeChannel struct {
	sender RealtimeSender
}

// NewRealtimeChannel creates a realtime channel over the given sender.
func NewRealtimeChannel(sender RealtimeSender) *RealtimeChannel {
	return &RealtimeChannel{sender: sender}
}

// Name returns the channel identifier "realtime".
func (c *RealtimeChannel) Name() string {
	return "realtime"
}

// Eligible always returns true. Realtime delivery has no settings toggle;
// the client decides what to surface, and offline users cost nothing.
func (c *RealtimeChannel) Eligible(req *DeliveryRequest) bool {
	return true
}

// Send writes the outcome frame to the user's live connection. Always
// returns nil: both "not connected" and "connection just died" are normal
// here, and the registry already prunes dead connections on write failure.
func (c *RealtimeChannel) Send(ctx context.Context, req *DeliveryRequest) error {
	event := req.Event

	notificationType := "trigger_success"
	title := "Webhook trigger succeeded"
	if !event.Success {
		notificationType = "trigger_failure"
		title = "Webhook trigger failed"
	}

	data := map[string]any{
		"callback_id":          event.CallbackID,
		"callback_name":        event.CallbackName,
		"success":              event.Success,
		"triggered_at":         event.TriggeredAt,
		"total_triggers_today": req.Stats.TotalTriggersToday,
		"success_rate":         req.Stats.SuccessRate,
		"avg_response_time_ms": req.Stats.AvgResponseTimeMs,
	}
	if event.StatusCode != nil {
		data["status_code"] = *event.StatusCode
	}
	if event.Error != "" {
		data["error"] = event.Error
	}

	c.sender.SendToUser(event.UserID, entity.NewNotification(notificationType, title, event.CallbackName, data))
	return nil
}

var _ Channel = (*RealtimeChannel)(nil)
