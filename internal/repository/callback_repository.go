package repository

import (
	"context"

	"hookrelay/internal/domain/entity"
)

// CallbackRepository looks up registered callbacks for the trigger path.
type CallbackRepository interface {
	// Get retrieves a callback by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id int64) (*entity.Callback, error)
}
