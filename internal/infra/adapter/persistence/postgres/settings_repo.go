package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
)

type SettingsRepo struct{ db *sql.DB }

func NewSettingsRepo(db *sql.DB) repository.SettingsRepository {
	return &SettingsRepo{db: db}
}

// marshalRecipients serializes a recipient list to JSON for storage.
// nil slices are stored as NULL to keep the column sparse.
func marshalRecipients(recipients []string) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	return json.Marshal(recipients)
}

// unmarshalRecipients deserializes a stored recipient list.
func unmarshalRecipients(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var recipients []string
	if err := json.Unmarshal(raw, &recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

func (repo *SettingsRepo) Get(ctx context.Context, userID int64) (*entity.NotificationSettings, error) {
	const query = `
SELECT user_id,
       email_enabled, email_on_success, email_on_failure, email_recipients,
       whatsapp_enabled, whatsapp_on_success, whatsapp_on_failure, whatsapp_recipients,
       telegram_enabled, telegram_on_success, telegram_on_failure, telegram_chat_ids,
       sms_enabled, sms_on_success, sms_on_failure, sms_recipients,
       push_enabled, push_on_success, push_on_failure,
       slack_webhook_url, updated_at
FROM notification_settings
WHERE user_id = $1
LIMIT 1`

	var s entity.NotificationSettings
	var emailJSON, whatsappJSON, telegramJSON, smsJSON []byte
	var slackURL sql.NullString

	err := repo.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID,
		&s.EmailEnabled, &s.EmailOnSuccess, &s.EmailOnFailure, &emailJSON,
		&s.WhatsAppEnabled, &s.WhatsAppOnSuccess, &s.WhatsAppOnFailure, &whatsappJSON,
		&s.TelegramEnabled, &s.TelegramOnSuccess, &s.TelegramOnFailure, &telegramJSON,
		&s.SMSEnabled, &s.SMSOnSuccess, &s.SMSOnFailure, &smsJSON,
		&s.PushEnabled, &s.PushOnSuccess, &s.PushOnFailure,
		&slackURL, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	if s.EmailRecipients, err = unmarshalRecipients(emailJSON); err != nil {
		return nil, fmt.Errorf("Get: unmarshal email_recipients: %w", err)
	}
	if s.WhatsAppRecipients, err = unmarshalRecipients(whatsappJSON); err != nil {
		return nil, fmt.Errorf("Get: unmarshal whatsapp_recipients: %w", err)
	}
	if s.TelegramChatIDs, err = unmarshalRecipients(telegramJSON); err != nil {
		return nil, fmt.Errorf("Get: unmarshal telegram_chat_ids: %w", err)
	}
	if s.SMSRecipients, err = unmarshalRecipients(smsJSON); err != nil {
		return nil, fmt.Errorf("Get: unmarshal sms_recipients: %w", err)
	}
	if slackURL.Valid {
		s.SlackWebhookURL = slackURL.String
	}

	return &s, nil
}

func (repo *SettingsRepo) Upsert(ctx context.Context, settings *entity.NotificationSettings) error {
	emailJSON, err := marshalRecipients(settings.EmailRecipients)
	if err != nil {
		return fmt.Errorf("Upsert: marshal email_recipients: %w", err)
	}
	whatsappJSON, err := marshalRecipients(settings.WhatsAppRecipients)
	if err != nil {
		return fmt.Errorf("Upsert: marshal whatsapp_recipients: %w", err)
	}
	telegramJSON, err := marshalRecipients(settings.TelegramChatIDs)
	if err != nil {
		return fmt.Errorf("Upsert: marshal telegram_chat_ids: %w", err)
	}
	smsJSON, err := marshalRecipients(settings.SMSRecipients)
	if err != nil {
		return fmt.Errorf("Upsert: marshal sms_recipients: %w", err)
	}

	const query = `
INSERT INTO notification_settings (
       user_id,
       email_enabled, email_on_success, email_on_failure, email_recipients,
       whatsapp_enabled, whatsapp_on_success, whatsapp_on_failure, whatsapp_recipients,
       telegram_enabled, telegram_on_success, telegram_on_failure, telegram_chat_ids,
       sms_enabled, sms_on_success, sms_on_failure, sms_recipients,
       push_enabled, push_on_success, push_on_failure,
       slack_webhook_url, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW())
ON CONFLICT (user_id) DO UPDATE SET
       email_enabled       = EXCLUDED.email_enabled,
       email_on_success    = EXCLUDED.email_on_success,
       email_on_failure    = EXCLUDED.email_on_failure,
       email_recipients    = EXCLUDED.email_recipients,
       whatsapp_enabled    = EXCLUDED.whatsapp_enabled,
       whatsapp_on_success = EXCLUDED.whatsapp_on_success,
       whatsapp_on_failure = EXCLUDED.whatsapp_on_failure,
       whatsapp_recipients = EXCLUDED.whatsapp_recipients,
       telegram_enabled    = EXCLUDED.telegram_enabled,
       telegram_on_success = EXCLUDED.telegram_on_success,
       telegram_on_failure = EXCLUDED.telegram_on_failure,
       telegram_chat_ids   = EXCLUDED.telegram_chat_ids,
       sms_enabled         = EXCLUDED.sms_enabled,
       sms_on_success      = EXCLUDED.sms_on_success,
       sms_on_failure      = EXCLUDED.sms_on_failure,
       sms_recipients      = EXCLUDED.sms_recipients,
       push_enabled        = EXCLUDED.push_enabled,
       push_on_success     = EXCLUDED.push_on_success,
       push_on_failure     = EXCLUDED.push_on_failure,
       slack_webhook_url   = EXCLUDED.slack_webhook_url,
       updated_at          = NOW()`

	_, err = repo.db.ExecContext(ctx, query,
		settings.UserID,
		settings.EmailEnabled, settings.EmailOnSuccess, settings.EmailOnFailure, emailJSON,
		settings.WhatsAppEnabled, settings.WhatsAppOnSuccess, settings.WhatsAppOnFailure, whatsappJSON,
		settings.TelegramEnabled, settings.TelegramOnSuccess, settings.TelegramOnFailure, telegramJSON,
		settings.SMSEnabled, settings.SMSOnSuccess, settings.SMSOnFailure, smsJSON,
		settings.PushEnabled, settings.PushOnSuccess, settings.PushOnFailure,
		nullableString(settings.SlackWebhookURL),
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// nullableString maps empty strings to NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
