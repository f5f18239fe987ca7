package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
)

type AccountRepo struct{ db *sql.DB }

func NewAccountRepo(db *sql.DB) repository.AccountRepository {
	return &AccountRepo{db: db}
}

func (repo *AccountRepo) GetTier(ctx context.Context, userID int64) (entity.Tier, error) {
	const query = `SELECT tier FROM accounts WHERE id = $1 LIMIT 1`

	var tier string
	err := repo.db.QueryRowContext(ctx, query, userID).Scan(&tier)
	if err == sql.ErrNoRows {
		// Unknown accounts gate like free ones.
		return entity.TierFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("GetTier: %w", err)
	}
	return entity.Tier(tier), nil
}
