package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
)

type CallbackRepo struct{ db *sql.DB }

func NewCallbackRepo(db *sql.DB) repository.CallbackRepository {
	return &CallbackRepo{db: db}
}

func (repo *CallbackRepo) Get(ctx context.Context, id int64) (*entity.Callback, error) {
	const query = `
SELECT id, user_id, name, target_url, active, created_at
FROM callbacks
WHERE id = $1
LIMIT 1`

	var cb entity.Callback
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&cb.ID, &cb.UserID, &cb.Name, &cb.TargetURL, &cb.Active, &cb.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &cb, nil
}
