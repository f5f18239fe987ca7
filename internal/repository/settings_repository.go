package repository

import (
	"context"

	"hookrelay/internal/domain/entity"
)

// SettingsRepository persists per-user notification settings.
// Settings rows are created lazily: Get returns nil (not an error) for users
// who have never saved settings, and callers fall back to entity.DefaultSettings.
type SettingsRepository interface {
	// Get retrieves the settings row for a user.
	// Returns (nil, nil) when the user has no stored settings.
	Get(ctx context.Context, userID int64) (*entity.NotificationSettings, error)

	// Upsert creates or replaces the settings row for settings.UserID.
	Upsert(ctx context.Context, settings *entity.NotificationSettings) error
}
