package settings

import (
	"context"
	"net/http"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/handler/http/respond"
)

// Service is the slice of the settings use case these handlers need,
// satisfied by *settings.Service from internal/usecase/settings.
type Service interface {
	Get(ctx context.Context, userID int64) (*entity.NotificationSettings, error)
	Update(ctx context.Context, settings *entity.NotificationSettings) error
	TestSlackWebhook(ctx context.Context, webhookURL string) (bool, error)
}

// GetHandler serves GET /api/notifications/settings.
type GetHandler struct{ Svc Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	stored, err := h.Svc.Get(r.Context(), id.UserID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, fromEntity(stored))
}
