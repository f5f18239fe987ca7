// Package settings exposes the notification preferences endpoints:
// GET/PUT /api/notifications/settings and the interactive Slack webhook test.
package settings

import (
	"time"

	"hookrelay/internal/domain/entity"
)

// settingsDTO is the wire form of a user's notification settings. The user ID
// never travels in the body; it always comes from the authenticated identity.
type settingsDTO struct {
	EmailEnabled    bool     `json:"email_enabled"`
	EmailOnSuccess  bool     `json:"email_on_success"`
	EmailOnFailure  bool     `json:"email_on_failure"`
	EmailRecipients []string `json:"email_recipients,omitempty"`

	WhatsAppEnabled    bool     `json:"whatsapp_enabled"`
	WhatsAppOnSuccess  bool     `json:"whatsapp_on_success"`
	WhatsAppOnFailure  bool     `json:"whatsapp_on_failure"`
	WhatsAppRecipients []string `json:"whatsapp_recipients,omitempty"`

	TelegramEnabled   bool     `json:"telegram_enabled"`
	TelegramOnSuccess bool     `json:"telegram_on_success"`
	TelegramOnFailure bool     `json:"telegram_on_failure"`
	TelegramChatIDs   []string `json:"telegram_chat_ids,omitempty"`

	SMSEnabled    bool     `json:"sms_enabled"`
	SMSOnSuccess  bool     `json:"sms_on_success"`
	SMSOnFailure  bool     `json:"sms_on_failure"`
	SMSRecipients []string `json:"sms_recipients,omitempty"`

	PushEnabled   bool `json:"push_enabled"`
	PushOnSuccess bool `json:"push_on_success"`
	PushOnFailure bool `json:"push_on_failure"`

	SlackWebhookURL string `json:"slack_webhook_url,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func fromEntity(s *entity.NotificationSettings) settingsDTO {
	return settingsDTO{
		EmailEnabled:    s.EmailEnabled,
		EmailOnSuccess:  s.EmailOnSuccess,
		EmailOnFailure:  s.EmailOnFailure,
		EmailRecipients: s.EmailRecipients,

		WhatsAppEnabled:    s.WhatsAppEnabled,
		WhatsAppOnSuccess:  s.WhatsAppOnSuccess,
		WhatsAppOnFailure:  s.WhatsAppOnFailure,
		WhatsAppRecipients: s.WhatsAppRecipients,

		TelegramEnabled:   s.TelegramEnabled,
		TelegramOnSuccess: s.TelegramOnSuccess,
		TelegramOnFailure: s.TelegramOnFailure,
		TelegramChatIDs:   s.TelegramChatIDs,

		SMSEnabled:    s.SMSEnabled,
		SMSOnSuccess:  s.SMSOnSuccess,
		SMSOnFailure:  s.SMSOnFailure,
		SMSRecipients: s.SMSRecipients,

		PushEnabled:   s.PushEnabled,
		PushOnSuccess: s.PushOnSuccess,
		PushOnFailure: s.PushOnFailure,

		SlackWebhookURL: s.SlackWebhookURL,

		UpdatedAt: s.UpdatedAt,
	}
}

func (d settingsDTO) toEntity(userID int64) *entity.NotificationSettings {
	return &entity.NotificationSettings{
		UserID: userID,

		EmailEnabled:    d.EmailEnabled,
		EmailOnSuccess:  d.EmailOnSuccess,
		EmailOnFailure:  d.EmailOnFailure,
		EmailRecipients: d.EmailRecipients,

		WhatsAppEnabled:    d.WhatsAppEnabled,
		WhatsAppOnSuccess:  d.WhatsAppOnSuccess,
		WhatsAppOnFailure:  d.WhatsAppOnFailure,
		WhatsAppRecipients: d.WhatsAppRecipients,

		TelegramEnabled:   d.TelegramEnabled,
		TelegramOnSuccess: d.TelegramOnSuccess,
		TelegramOnFailure: d.TelegramOnFailure,
		TelegramChatIDs:   d.TelegramChatIDs,

		SMSEnabled:    d.SMSEnabled,
		SMSOnSuccess:  d.SMSOnSuccess,
		SMSOnFailure:  d.SMSOnFailure,
		SMSRecipients: d.SMSRecipients,

		PushEnabled:   d.PushEnabled,
		PushOnSuccess: d.PushOnSuccess,
		PushOnFailure: d.PushOnFailure,

		SlackWebhookURL: d.SlackWebhookURL,
	}
}
