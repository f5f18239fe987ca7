// Package settings implements the notification preferences use cases: reading
// and updating a user's per-channel settings with tier enforcement, managing
// the Web Push subscription record, and the interactive Slack webhook test.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
)

// slackTestTimeout bounds the interactive webhook test so the settings page
// gets a prompt answer.
const slackTestTimeout = 6 * time.Second

// SlackTester posts a test message to a webhook URL, satisfied by
// notifier.SlackNotifier.
type SlackTester interface {
	NotifyTest(ctx context.Context, webhookURL string) bool
}

// Service implements the settings use cases.
type Service struct {
	settings repository.SettingsRepository
	subs     repository.PushSubscriptionRepository
	accounts repository.AccountRepository
	slack    SlackTester
}

// NewService creates the settings service.
func NewService(
	settings repository.SettingsRepository,
	subs repository.PushSubscriptionRepository,
	accounts repository.AccountRepository,
	slack SlackTester,
) *Service {
	return &Service{settings: settings, subs: subs, accounts: accounts, slack: slack}
}

// Get returns the user's notification settings, falling back to the defaults
// for users who have never saved any. The returned settings always have tier
// gates applied, so the caller sees the effective configuration rather than
// the raw stored row.
func (s *Service) Get(ctx context.Context, userID int64) (*entity.NotificationSettings, error) {
	stored, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if stored == nil {
		stored = entity.DefaultSettings(userID)
	}

	tier, err := s.accounts.GetTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	stored.ApplyTierGates(tier)

	return stored, nil
}

// Update validates and persists the user's settings.
//
// Validation happens against the owning account's tier: recipient caps,
// WhatsApp/SMS entitlement, and the Slack webhook prefix. Invalid input is
// rejected with a *entity.ValidationError wrapping entity.ErrInvalidInput
// semantics; gated flags are never silently stripped on write, the caller
// must send a valid document.
func (s *Service) Update(ctx context.Context, settings *entity.NotificationSettings) error {
	if settings == nil {
		return fmt.Errorf("Update: %w", entity.ErrInvalidInput)
	}

	tier, err := s.accounts.GetTier(ctx, settings.UserID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if err := settings.Validate(tier); err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	if err := s.settings.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	slog.Info("notification settings updated",
		slog.Int64("user_id", settings.UserID),
		slog.String("tier", string(tier)))
	return nil
}

// TestSlackWebhook posts a test message to the given webhook URL.
//
// The URL is validated against the Incoming Webhook prefix before any network
// traffic: this endpoint must not become an open relay for posting to
// arbitrary URLs. A valid URL that fails to deliver returns false, nil.
func (s *Service) TestSlackWebhook(ctx context.Context, webhookURL string) (bool, error) {
	if !strings.HasPrefix(webhookURL, entity.SlackWebhookPrefix) {
		return false, &entity.ValidationError{
			Field:   "webhook_url",
			Message: "webhook url must start with " + entity.SlackWebhookPrefix,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, slackTestTimeout)
	defer cancel()
	return s.slack.NotifyTest(ctx, webhookURL), nil
}

// Subscribe stores or replaces the user's Web Push subscription. A user
// re-subscribing from a new browser replaces the old record: one subscription
// per user mirrors the one-connection-per-user realtime model.
func (s *Service) Subscribe(ctx context.Context, sub *entity.PushSubscription) error {
	if sub == nil {
		return fmt.Errorf("Subscribe: %w", entity.ErrInvalidInput)
	}
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("Subscribe: %w", err)
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("Subscribe: %w", err)
	}

	slog.Info("push subscription stored", slog.Int64("user_id", sub.UserID))
	return nil
}

// Unsubscribe removes the user's Web Push subscription. Removing a user
// without one is a no-op, not an error.
func (s *Service) Unsubscribe(ctx context.Context, userID int64) error {
	if err := s.subs.Delete(ctx, userID); err != nil {
		return fmt.Errorf("Unsubscribe: %w", err)
	}
	slog.Info("push subscription removed", slog.Int64("user_id", userID))
	return nil
}
