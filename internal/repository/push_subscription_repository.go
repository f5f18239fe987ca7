package repository

import (
	"context"
	"time"

	"hookrelay/internal/domain/entity"
)

// PushSubscriptionRepository persists Web Push subscriptions, one per user.
type PushSubscriptionRepository interface {
	// Get retrieves the subscription for a user.
	// Returns (nil, nil) when the user has no subscription.
	Get(ctx context.Context, userID int64) (*entity.PushSubscription, error)

	// Upsert creates or replaces the subscription for sub.UserID.
	// A user re-subscribing from a new browser replaces the old record.
	Upsert(ctx context.Context, sub *entity.PushSubscription) error

	// Delete removes the subscription for a user. Deleting a user without a
	// subscription is not an error; the orchestrator calls this from the
	// expired-subscription path where the row may already be gone.
	Delete(ctx context.Context, userID int64) error

	// ListOlderThan returns subscriptions whose updated_at is before cutoff.
	// Used by the cleanup sweep to pick probe candidates.
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*entity.PushSubscription, error)
}
