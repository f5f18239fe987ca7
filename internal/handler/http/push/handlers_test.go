package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/handler/http/auth"
)

type fakeService struct {
	subscribed     *entity.PushSubscription
	subscribeErr   error
	unsubscribed   []int64
	unsubscribeErr error
}

func (f *fakeService) Subscribe(ctx context.Context, sub *entity.PushSubscription) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscribed = sub
	return nil
}

func (f *fakeService) Unsubscribe(ctx context.Context, userID int64) error {
	if f.unsubscribeErr != nil {
		return f.unsubscribeErr
	}
	f.unsubscribed = append(f.unsubscribed, userID)
	return nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithIdentity(req.Context(), auth.Identity{UserID: 7, Email: "owner@example.com", Role: "user"})
	return req.WithContext(ctx)
}

func TestSubscribeHandler(t *testing.T) {
	// Arrange: the exact shape PushSubscription.toJSON() produces.
	svc := &fakeService{}
	body := `{
		"endpoint": "https://push.example.com/send/abc123",
		"keys": {"p256dh": "BPx...", "auth": "4vQK..."}
	}`
	rec := httptest.NewRecorder()

	// Act
	SubscribeHandler{Svc: svc}.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/notifications/push/subscribe", body))

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.subscribed)
	assert.Equal(t, int64(7), svc.subscribed.UserID)
	assert.Equal(t, "https://push.example.com/send/abc123", svc.subscribed.Endpoint)
	assert.Equal(t, "BPx...", svc.subscribed.P256dhKey)
	assert.Equal(t, "4vQK...", svc.subscribed.AuthKey)
}

func TestSubscribeHandler_InvalidSubscription(t *testing.T) {
	svc := &fakeService{subscribeErr: &entity.ValidationError{Field: "auth_key", Message: "auth key is required"}}
	rec := httptest.NewRecorder()

	SubscribeHandler{Svc: svc}.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/notifications/push/subscribe", `{"endpoint":"https://push.example.com/x","keys":{"p256dh":"k"}}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribeHandler_Unauthenticated(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/push/subscribe", strings.NewReader(`{}`))

	SubscribeHandler{Svc: &fakeService{}}.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnsubscribeHandler(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()

	UnsubscribeHandler{Svc: svc}.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/notifications/push/subscribe", ""))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{7}, svc.unsubscribed)
}

func TestVAPIDKeyHandler(t *testing.T) {
	rec := httptest.NewRecorder()

	VAPIDKeyHandler{PublicKey: "BDpub"}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/push/vapid-key", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"public_key":"BDpub"}`, rec.Body.String())
}
