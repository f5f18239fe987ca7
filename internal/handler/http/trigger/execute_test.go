package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/handler/http/auth"
	triggerUC "hookrelay/internal/usecase/trigger"
)

type fakeExecutor struct {
	event     *entity.TriggerEvent
	err       error
	lastID    int64
	lastEmail string
}

func (f *fakeExecutor) Execute(ctx context.Context, callbackID int64, userEmail string) (*entity.TriggerEvent, error) {
	f.lastID = callbackID
	f.lastEmail = userEmail
	return f.event, f.err
}

func authedRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	ctx := auth.WithIdentity(req.Context(), auth.Identity{UserID: 7, Email: "owner@example.com", Role: "user"})
	return req.WithContext(ctx)
}

func TestExecuteHandler_SuccessfulInvocation(t *testing.T) {
	// Arrange
	status := 200
	elapsed := 243
	svc := &fakeExecutor{event: &entity.TriggerEvent{
		CallbackID:     3,
		Success:        true,
		StatusCode:     &status,
		ResponseTimeMs: &elapsed,
		TriggeredAt:    time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}}
	rec := httptest.NewRecorder()

	// Act
	ExecuteHandler{Svc: svc}.ServeHTTP(rec, authedRequest("/api/triggers/3"))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), svc.lastID)
	assert.Equal(t, "owner@example.com", svc.lastEmail, "the notification footer needs the caller's email")

	var body outcomeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.NotNil(t, body.StatusCode)
	assert.Equal(t, 200, *body.StatusCode)
}

func TestExecuteHandler_FailedTargetIsStill200(t *testing.T) {
	// A 502 from the user's endpoint is an outcome, not a handler error.
	status := 502
	svc := &fakeExecutor{event: &entity.TriggerEvent{
		CallbackID:  3,
		Success:     false,
		StatusCode:  &status,
		Error:       "target responded with status 502",
		TriggeredAt: time.Now(),
	}}
	rec := httptest.NewRecorder()

	ExecuteHandler{Svc: svc}.ServeHTTP(rec, authedRequest("/api/triggers/3"))

	require.Equal(t, http.StatusOK, rec.Code)
	var body outcomeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "target responded with status 502", body.Error)
}

func TestExecuteHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "unknown callback",
			err:      fmt.Errorf("Execute: callback 99: %w", entity.ErrNotFound),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "inactive callback",
			err:      fmt.Errorf("Execute: callback 3: %w", triggerUC.ErrCallbackInactive),
			wantCode: http.StatusConflict,
		},
		{
			name:     "unsafe target url",
			err:      fmt.Errorf("Execute: %w", &entity.ValidationError{Field: "target_url", Message: "target url must not resolve to a private address"}),
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeExecutor{err: tt.err}
			rec := httptest.NewRecorder()

			ExecuteHandler{Svc: svc}.ServeHTTP(rec, authedRequest("/api/triggers/3"))

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestExecuteHandler_BadID(t *testing.T) {
	rec := httptest.NewRecorder()

	ExecuteHandler{Svc: &fakeExecutor{}}.ServeHTTP(rec, authedRequest("/api/triggers/abc"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteHandler_Unauthenticated(t *testing.T) {
	rec := httptest.NewRecorder()

	ExecuteHandler{Svc: &fakeExecutor{}}.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/triggers/3", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
