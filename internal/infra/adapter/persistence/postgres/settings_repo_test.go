package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/infra/adapter/persistence/postgres"
)

func settingsColumns() []string {
	return []string{
		"user_id",
		"email_enabled", "email_on_success", "email_on_failure", "email_recipients",
		"whatsapp_enabled", "whatsapp_on_success", "whatsapp_on_failure", "whatsapp_recipients",
		"telegram_enabled", "telegram_on_success", "telegram_on_failure", "telegram_chat_ids",
		"sms_enabled", "sms_on_success", "sms_on_failure", "sms_recipients",
		"push_enabled", "push_on_success", "push_on_failure",
		"slack_webhook_url", "updated_at",
	}
}

func TestSettingsRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	want := &entity.NotificationSettings{
		UserID:          7,
		EmailEnabled:    true,
		EmailOnSuccess:  true,
		EmailOnFailure:  true,
		EmailRecipients: []string{"owner@example.com"},
		PushEnabled:     true,
		PushOnFailure:   true,
		SlackWebhookURL: "https://hooks.slack.com/services/T000/B000/XXXX",
		UpdatedAt:       now,
	}

	rows := sqlmock.NewRows(settingsColumns()).AddRow(
		int64(7),
		true, true, true, []byte(`["owner@example.com"]`),
		false, false, false, nil,
		false, false, false, nil,
		false, false, false, nil,
		true, false, true,
		"https://hooks.slack.com/services/T000/B000/XXXX", now,
	)

	mock.ExpectQuery(`FROM notification_settings`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	repo := postgres.NewSettingsRepo(db)
	got, err := repo.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSettingsRepo_Get_Absent(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM notification_settings`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(settingsColumns()))

	repo := postgres.NewSettingsRepo(db)
	got, err := repo.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got != nil {
		t.Fatalf("Get = %+v, want nil for users without stored settings", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSettingsRepo_Upsert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notification_settings`)).
		WithArgs(
			int64(7),
			true, true, true, []byte(`["owner@example.com"]`),
			false, false, false, sqlmock.AnyArg(),
			false, false, false, sqlmock.AnyArg(),
			false, false, false, sqlmock.AnyArg(),
			true, false, true,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewSettingsRepo(db)
	err := repo.Upsert(context.Background(), &entity.NotificationSettings{
		UserID:          7,
		EmailEnabled:    true,
		EmailOnSuccess:  true,
		EmailOnFailure:  true,
		EmailRecipients: []string{"owner@example.com"},
		PushEnabled:     true,
		PushOnFailure:   true,
		SlackWebhookURL: "https://hooks.slack.com/services/T000/B000/XXXX",
	})
	if err != nil {
		t.Fatalf("Upsert err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
