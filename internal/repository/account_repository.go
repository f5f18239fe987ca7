package repository

import (
	"context"

	"hookrelay/internal/domain/entity"
)

// AccountRepository exposes the slice of account state the notification core
// needs: the subscription tier that gates channels and recipient caps.
type AccountRepository interface {
	// GetTier returns the subscription tier for a user.
	// Unknown users resolve to the free tier rather than an error, matching
	// the dispatch path's fail-closed gating.
	GetTier(ctx context.Context, userID int64) (entity.Tier, error)
}
