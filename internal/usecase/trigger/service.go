// Package trigger implements the callback invocation path: resolve the
// registered callback, POST to its target URL, record the outcome as a
// trigger log row, and hand the event to the notification orchestrator.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/repository"
	"hookrelay/internal/usecase/notify"
)

// Sentinel errors for the trigger path.
var (
	// ErrCallbackInactive indicates the callback exists but is switched off.
	ErrCallbackInactive = errors.New("callback is inactive")
)

// callbackTimeout bounds the outbound POST to the user's target URL.
const callbackTimeout = 10 * time.Second

// maxErrorDetail caps how much of a failure description is stored and shown.
const maxErrorDetail = 500

// Service executes callbacks and feeds their outcomes into logging and
// notification.
type Service struct {
	callbacks  repository.CallbackRepository
	logs       repository.TriggerLogRepository
	notifier   notify.Service
	httpClient *http.Client
}

// NewService creates the trigger service.
func NewService(callbacks repository.CallbackRepository, logs repository.TriggerLogRepository, notifier notify.Service) *Service {
	return &Service{
		callbacks:  callbacks,
		logs:       logs,
		notifier:   notifier,
		httpClient: &http.Client{Timeout: callbackTimeout},
	}
}

// triggerPayload is the JSON document POSTed to the callback's target URL.
type triggerPayload struct {
	CallbackID   int64     `json:"callback_id"`
	CallbackName string    `json:"callback_name"`
	TriggeredAt  time.Time `json:"triggered_at"`
}

// Execute invokes the callback once and returns the resulting event.
//
// A failing target (non-2xx, timeout, connection refused) is NOT an error
// from Execute: the invocation happened and its outcome is the product. The
// returned error covers only the cases where no invocation took place:
// unknown callback (entity.ErrNotFound), inactive callback
// (ErrCallbackInactive), or an unsafe target URL.
//
// The outcome is logged before notification dispatch so the day-window
// statistics attached to the notification include the event itself. A failed
// log write degrades to a warning; losing one statistics row must not
// swallow the user's notification.
func (s *Service) Execute(ctx context.Context, callbackID int64, userEmail string) (*entity.TriggerEvent, error) {
	cb, err := s.callbacks.Get(ctx, callbackID)
	if err != nil {
		return nil, fmt.Errorf("Execute: %w", err)
	}
	if cb == nil {
		return nil, fmt.Errorf("Execute: callback %d: %w", callbackID, entity.ErrNotFound)
	}
	if !cb.Active {
		return nil, fmt.Errorf("Execute: callback %d: %w", callbackID, ErrCallbackInactive)
	}
	if err := entity.ValidateURL(cb.TargetURL); err != nil {
		return nil, fmt.Errorf("Execute: %w", err)
	}

	event := s.invoke(ctx, cb, userEmail)

	if err := s.logs.Insert(ctx, event); err != nil {
		slog.Warn("failed to record trigger log",
			slog.Int64("callback_id", cb.ID),
			slog.Any("error", err))
	}

	// Never fails and never blocks; see notify.Service.
	_ = s.notifier.NotifyTriggerOutcome(ctx, event)

	return event, nil
}

// invoke performs the outbound POST and translates the result into a
// TriggerEvent.
func (s *Service) invoke(ctx context.Context, cb *entity.Callback, userEmail string) *entity.TriggerEvent {
	triggeredAt := time.Now()
	event := &entity.TriggerEvent{
		CallbackID:   cb.ID,
		CallbackName: cb.Name,
		CallbackURL:  cb.TargetURL,
		TriggeredAt:  triggeredAt,
		UserID:       cb.UserID,
		UserEmail:    userEmail,
	}

	body, err := json.Marshal(triggerPayload{
		CallbackID:   cb.ID,
		CallbackName: cb.Name,
		TriggeredAt:  triggeredAt,
	})
	if err != nil {
		event.Error = truncateDetail(fmt.Sprintf("marshal payload: %v", err))
		return event
	}

	ctx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cb.TargetURL, bytes.NewReader(body))
	if err != nil {
		event.Error = truncateDetail(fmt.Sprintf("create request: %v", err))
		return event
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	elapsed := int(time.Since(start).Milliseconds())
	event.ResponseTimeMs = &elapsed

	if err != nil {
		event.ResponseTimeMs = nil
		event.Error = truncateDetail(err.Error())
		return event
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	event.StatusCode = &resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		event.Success = true
	} else {
		event.Error = truncateDetail(fmt.Sprintf("target responded with status %d", resp.StatusCode))
	}
	return event
}

func truncateDetail(detail string) string {
	if len(detail) <= maxErrorDetail {
		return detail
	}
	return detail[:maxErrorDetail-3] + "..."
}
