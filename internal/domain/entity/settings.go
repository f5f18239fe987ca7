package entity

import (
	"fmt"
	"strings"
	"time"
)

// Tier is the subscription level of an account. It gates which notification
// channels may be enabled and how many recipients a user may configure.
type Tier string

// Subscription tiers, ordered from least to most entitled.
const (
	TierFree    Tier = "FREE"
	TierStarter Tier = "STARTER"
	TierPro     Tier = "PRO"
	TierAdmin   Tier = "ADMIN"
)

// IsPaid reports whether the tier unlocks paid-only channels (WhatsApp, SMS).
func (t Tier) IsPaid() bool {
	switch t {
	case TierStarter, TierPro, TierAdmin:
		return true
	}
	return false
}

// RecipientLimit returns the combined recipient cap across all channels for
// the tier. A negative value means unlimited.
func (t Tier) RecipientLimit() int {
	switch t {
	case TierFree:
		return 1
	case TierStarter:
		return 3
	case TierPro:
		return 10
	case TierAdmin:
		return -1
	}
	// Unknown tiers get the most restrictive cap.
	return 1
}

// SlackWebhookPrefix is the required prefix for Slack Incoming Webhook URLs.
// Settings writes reject any slack_webhook_url that does not start with it.
const SlackWebhookPrefix = "https://hooks.slack.com/"

// NotificationSettings holds a user's per-channel notification preferences.
// One row per user, created lazily on first write; DefaultSettings supplies
// the values used when no row exists yet.
type NotificationSettings struct {
	UserID int64

	EmailEnabled    bool
	EmailOnSuccess  bool
	EmailOnFailure  bool
	EmailRecipients []string

	WhatsAppEnabled    bool
	WhatsAppOnSuccess  bool
	WhatsAppOnFailure  bool
	WhatsAppRecipients []string

	TelegramEnabled   bool
	TelegramOnSuccess bool
	TelegramOnFailure bool
	TelegramChatIDs   []string

	SMSEnabled    bool
	SMSOnSuccess  bool
	SMSOnFailure  bool
	SMSRecipients []string

	PushEnabled   bool
	PushOnSuccess bool
	PushOnFailure bool

	SlackWebhookURL string

	UpdatedAt time.Time
}

// DefaultSettings returns the settings applied when a user has never saved
// any: email notifications on for both outcomes, every other channel off.
func DefaultSettings(userID int64) *NotificationSettings {
	return &NotificationSettings{
		UserID:         userID,
		EmailEnabled:   true,
		EmailOnSuccess: true,
		EmailOnFailure: true,
	}
}

// RecipientCount returns the combined number of configured recipients across
// all channels. This is the figure the tier cap applies to.
func (s *NotificationSettings) RecipientCount() int {
	return len(s.EmailRecipients) + len(s.WhatsAppRecipients) +
		len(s.TelegramChatIDs) + len(s.SMSRecipients)
}

// ApplyTierGates force-disables channels the tier is not entitled to,
// regardless of the stored flags. The settings write path rejects gated flags
// outright; this method is the dispatch-path re-check so that a stale or
// tampered row can never cause a gated channel to fire.
func (s *NotificationSettings) ApplyTierGates(tier Tier) {
	if tier.IsPaid() {
		return
	}
	s.WhatsAppEnabled = false
	s.WhatsAppOnSuccess = false
	s.WhatsAppOnFailure = false
	s.SMSEnabled = false
	s.SMSOnSuccess = false
	s.SMSOnFailure = false
}

// Validate checks the settings against the owning user's tier.
// It enforces:
//   - the combined recipient cap for the tier
//   - that WhatsApp and SMS are not enabled on unpaid tiers
//   - that SlackWebhookURL, when set, is a Slack Incoming Webhook URL
//
// Returns a ValidationError describing the first violation, or nil.
func (s *NotificationSettings) Validate(tier Tier) error {
	if s.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "user_id must be positive"}
	}

	if limit := tier.RecipientLimit(); limit >= 0 && s.RecipientCount() > limit {
		return &ValidationError{
			Field:   "recipients",
			Message: fmt.Sprintf("recipient count %d exceeds the limit of %d for tier %s", s.RecipientCount(), limit, tier),
		}
	}

	if !tier.IsPaid() {
		if s.WhatsAppEnabled {
			return &ValidationError{Field: "whatsapp_enabled", Message: "whatsapp notifications require a paid subscription"}
		}
		if s.SMSEnabled {
			return &ValidationError{Field: "sms_enabled", Message: "sms notifications require a paid subscription"}
		}
	}

	if s.SlackWebhookURL != "" && !strings.HasPrefix(s.SlackWebhookURL, SlackWebhookPrefix) {
		return &ValidationError{
			Field:   "slack_webhook_url",
			Message: "slack webhook url must start with " + SlackWebhookPrefix,
		}
	}

	return nil
}
