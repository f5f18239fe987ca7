// Package push exposes the Web Push subscription endpoints: registering and
// removing a browser subscription and serving the public VAPID key the
// browser needs to create one.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/handler/http/respond"
)

var errUnauthenticated = errors.New("authentication required")

// Service is the slice of the settings use case these handlers need,
// satisfied by *settings.Service from internal/usecase/settings.
type Service interface {
	Subscribe(ctx context.Context, sub *entity.PushSubscription) error
	Unsubscribe(ctx context.Context, userID int64) error
}

// subscriptionDTO mirrors the JSON a browser's PushSubscription serializes
// to, so the frontend can post `subscription.toJSON()` unchanged.
type subscriptionDTO struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// SubscribeHandler serves POST /api/notifications/push/subscribe. Upsert
// semantics: a user re-subscribing from a new browser replaces the old record.
type SubscribeHandler struct{ Svc Service }

func (h SubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	var req subscriptionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	sub := &entity.PushSubscription{
		UserID:    id.UserID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
	}
	if err := h.Svc.Subscribe(r.Context(), sub); err != nil {
		respond.DomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// UnsubscribeHandler serves DELETE /api/notifications/push/subscribe.
// Unsubscribing without a stored subscription succeeds; the end state is the
// same either way.
type UnsubscribeHandler struct{ Svc Service }

func (h UnsubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	if err := h.Svc.Unsubscribe(r.Context(), id.UserID); err != nil {
		respond.DomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
