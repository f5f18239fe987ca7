// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Callback, TriggerEvent and
// NotificationSettings, along with their validation rules and domain-specific errors.
package entity

import "time"

// Callback represents a user-registered target URL that is invoked when its
// trigger endpoint is hit.
type Callback struct {
	ID        int64
	UserID    int64
	Name      string
	TargetURL string
	Active    bool
	CreatedAt time.Time
}

// TriggerEvent is the outcome of a single callback invocation.
// It is ephemeral: constructed by the trigger path once the outbound call has
// completed, handed to the notification orchestrator, and never persisted as-is
// (the trigger log row is written separately by the trigger path).
type TriggerEvent struct {
	CallbackID   int64
	CallbackName string
	CallbackURL  string

	// Success reports whether the callback invocation succeeded.
	// When false, StatusCode and ResponseTimeMs may be nil (e.g. connection
	// refused before any response was received).
	Success        bool
	StatusCode     *int
	ResponseTimeMs *int
	Error          string

	TriggeredAt time.Time

	UserID    int64
	UserEmail string
}

// Validate checks that the event carries the minimum fields the notification
// pipeline depends on. Returns a ValidationError describing the first problem
// found, or nil if the event is valid.
func (e *TriggerEvent) Validate() error {
	if e == nil {
		return &ValidationError{Field: "event", Message: "event is required"}
	}
	if e.CallbackID <= 0 {
		return &ValidationError{Field: "callback_id", Message: "callback_id must be positive"}
	}
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "user_id must be positive"}
	}
	if e.TriggeredAt.IsZero() {
		return &ValidationError{Field: "triggered_at", Message: "triggered_at is required"}
	}
	return nil
}
