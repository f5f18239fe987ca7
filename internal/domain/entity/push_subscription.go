package entity

import "time"

// PushSubscription is a browser Web Push subscription registered by a user.
// At most one subscription exists per user: subscribing from a new browser
// replaces the previous record (upsert semantics).
//
// Lifecycle: created or replaced on subscribe, deleted on explicit
// unsubscribe, on a 404/410 delivery failure (the push service reports the
// endpoint gone), or by the periodic cleanup sweep.
type PushSubscription struct {
	UserID int64

	// Endpoint is the opaque push-service URL delivery requests are sent to.
	Endpoint string

	// P256dhKey and AuthKey are the client keys used to encrypt payloads.
	P256dhKey string
	AuthKey   string

	UpdatedAt time.Time
}

// Validate checks that the subscription carries everything a delivery
// attempt needs. Returns a ValidationError for the first missing field.
func (s *PushSubscription) Validate() error {
	if s == nil {
		return &ValidationError{Field: "subscription", Message: "subscription is required"}
	}
	if s.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "user_id must be positive"}
	}
	if err := ValidateURL(s.Endpoint); err != nil {
		return err
	}
	if s.P256dhKey == "" {
		return &ValidationError{Field: "p256dh_key", Message: "p256dh key is required"}
	}
	if s.AuthKey == "" {
		return &ValidationError{Field: "auth_key", Message: "auth key is required"}
	}
	return nil
}
