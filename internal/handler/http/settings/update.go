package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/handler/http/respond"
)

var errUnauthenticated = errors.New("authentication required")

// UpdateHandler serves PUT /api/notifications/settings. The full settings
// document is replaced; there is no field-level patching.
type UpdateHandler struct{ Svc Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	var req settingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	if err := h.Svc.Update(r.Context(), req.toEntity(id.UserID)); err != nil {
		respond.DomainError(w, err)
		return
	}

	updated, err := h.Svc.Get(r.Context(), id.UserID)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, fromEntity(updated))
}
