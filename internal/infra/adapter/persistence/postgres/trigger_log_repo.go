package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
)

type TriggerLogRepo struct{ db *sql.DB }

func NewTriggerLogRepo(db *sql.DB) repository.TriggerLogRepository {
	return &TriggerLogRepo{db: db}
}

func (repo *TriggerLogRepo) Insert(ctx context.Context, event *entity.TriggerEvent) error {
	const query = `
INSERT INTO trigger_logs (callback_id, user_id, callback_name, callback_url,
                          success, status_code, response_time_ms, error, triggered_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var statusCode, responseTime sql.NullInt64
	if event.StatusCode != nil {
		statusCode = sql.NullInt64{Int64: int64(*event.StatusCode), Valid: true}
	}
	if event.ResponseTimeMs != nil {
		responseTime = sql.NullInt64{Int64: int64(*event.ResponseTimeMs), Valid: true}
	}

	_, err := repo.db.ExecContext(ctx, query,
		event.CallbackID, event.UserID, event.CallbackName, event.CallbackURL,
		event.Success, statusCode, responseTime,
		nullableString(event.Error), event.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

func (repo *TriggerLogRepo) CountInWindow(ctx context.Context, userID int64, start, end time.Time, filter repository.TriggerLogFilter) (int64, error) {
	// The success column is a boolean on every row, so outcome filtering is a
	// direct comparison rather than free-text matching on an event field.
	query := `
SELECT COUNT(*)
FROM trigger_logs
WHERE user_id = $1 AND triggered_at >= $2 AND triggered_at < $3`
	args := []any{userID, start, end}

	if filter.Success != nil {
		query += ` AND success = $4`
		args = append(args, *filter.Success)
	}

	var count int64
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountInWindow: %w", err)
	}
	return count, nil
}

func (repo *TriggerLogRepo) AvgResponseTimeInWindow(ctx context.Context, userID int64, start, end time.Time) (*float64, error) {
	const query = `
SELECT AVG(response_time_ms)
FROM trigger_logs
WHERE user_id = $1 AND triggered_at >= $2 AND triggered_at < $3
AND response_time_ms IS NOT NULL`

	var avg sql.NullFloat64
	if err := repo.db.QueryRowContext(ctx, query, userID, start, end).Scan(&avg); err != nil {
		return nil, fmt.Errorf("AvgResponseTimeInWindow: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
