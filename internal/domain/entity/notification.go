package entity

import (
	"math"
	"time"
)

// ChannelContext carries the day-scoped trigger statistics shown alongside a
// notification (stats footer in Slack messages, data payload in push and
// realtime frames). It is computed fresh for every dispatch and never cached
// across events.
type ChannelContext struct {
	TotalTriggersToday int64
	SuccessRate        float64 // percentage in [0, 100], rounded to 2 decimals
	AvgResponseTimeMs  float64 // 0 when no samples exist in the window
}

// NewChannelContext derives a ChannelContext from raw window aggregates.
//
// SuccessRate is defined as 100 when totalTriggers is zero: a quiet day is
// reported as a perfect rate rather than a misleading "0% success".
func NewChannelContext(totalTriggers, successCount int64, avgResponseTimeMs float64) ChannelContext {
	rate := 100.0
	if totalTriggers > 0 {
		rate = math.Round(float64(successCount)/float64(totalTriggers)*100*100) / 100
	}
	return ChannelContext{
		TotalTriggersToday: totalTriggers,
		SuccessRate:        rate,
		AvgResponseTimeMs:  avgResponseTimeMs,
	}
}

// Notification is a single frame delivered over the realtime (SSE) channel.
// It is serialized as the data portion of a server-sent event.
type Notification struct {
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewNotification creates a Notification stamped with the current UTC time.
func NewNotification(notificationType, title, message string, data map[string]any) *Notification {
	return &Notification{
		Type:      notificationType,
		Title:     title,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
