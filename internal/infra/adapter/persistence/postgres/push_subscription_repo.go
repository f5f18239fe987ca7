package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
)

type PushSubscriptionRepo struct{ db *sql.DB }

func NewPushSubscriptionRepo(db *sql.DB) repository.PushSubscriptionRepository {
	return &PushSubscriptionRepo{db: db}
}

func (repo *PushSubscriptionRepo) Get(ctx context.Context, userID int64) (*entity.PushSubscription, error) {
	const query = `
SELECT user_id, endpoint, p256dh_key, auth_key, updated_at
FROM push_subscriptions
WHERE user_id = $1
LIMIT 1`

	var sub entity.PushSubscription
	err := repo.db.QueryRowContext(ctx, query, userID).Scan(
		&sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &sub, nil
}

func (repo *PushSubscriptionRepo) Upsert(ctx context.Context, sub *entity.PushSubscription) error {
	const query = `
INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (user_id) DO UPDATE SET
       endpoint   = EXCLUDED.endpoint,
       p256dh_key = EXCLUDED.p256dh_key,
       auth_key   = EXCLUDED.auth_key,
       updated_at = NOW()`

	_, err := repo.db.ExecContext(ctx, query,
		sub.UserID, sub.Endpoint, sub.P256dhKey, sub.AuthKey,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *PushSubscriptionRepo) Delete(ctx context.Context, userID int64) error {
	const query = `DELETE FROM push_subscriptions WHERE user_id = $1`
	// Zero rows affected is fine: the expired-subscription path may race a
	// concurrent unsubscribe or cleanup sweep.
	_, err := repo.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (repo *PushSubscriptionRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*entity.PushSubscription, error) {
	const query = `
SELECT user_id, endpoint, p256dh_key, auth_key, updated_at
FROM push_subscriptions
WHERE updated_at < $1
ORDER BY updated_at ASC`

	rows, err := repo.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("ListOlderThan: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.PushSubscription, 0, 50)
	for rows.Next() {
		var sub entity.PushSubscription
		if err := rows.Scan(&sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListOlderThan: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}
