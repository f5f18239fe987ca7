// Package trigger exposes the callback invocation endpoint
// POST /api/triggers/{id}.
package trigger

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/handler/http/pathutil"
	"hookrelay/internal/handler/http/respond"
	triggerUC "hookrelay/internal/usecase/trigger"
)

var triggersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "triggers_total",
		Help: "Total number of callback trigger invocations",
	},
	[]string{"outcome"},
)

// Executor invokes a callback, satisfied by *trigger.Service from
// internal/usecase/trigger.
type Executor interface {
	Execute(ctx context.Context, callbackID int64, userEmail string) (*entity.TriggerEvent, error)
}

// outcomeDTO is the wire form of an invocation result.
type outcomeDTO struct {
	CallbackID     int64  `json:"callback_id"`
	Success        bool   `json:"success"`
	StatusCode     *int   `json:"status_code,omitempty"`
	ResponseTimeMs *int   `json:"response_time_ms,omitempty"`
	Error          string `json:"error,omitempty"`
	TriggeredAt    string `json:"triggered_at"`
}

// ExecuteHandler serves POST /api/triggers/{id}.
//
// A failing target is a 200 with success=false: the invocation itself worked
// and the outcome is the payload. Only requests that never reached the target
// produce error statuses: 404 for unknown callbacks, 409 for inactive ones,
// 400 for unsafe target URLs.
type ExecuteHandler struct{ Svc Executor }

func (h ExecuteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	callbackID, err := pathutil.ExtractID(r.URL.Path, "/api/triggers/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	event, err := h.Svc.Execute(r.Context(), callbackID, id.Email)
	if err != nil {
		if errors.Is(err, triggerUC.ErrCallbackInactive) {
			respond.Error(w, http.StatusConflict, triggerUC.ErrCallbackInactive)
			return
		}
		respond.DomainError(w, err)
		return
	}

	outcome := "failure"
	if event.Success {
		outcome = "success"
	}
	triggersTotal.WithLabelValues(outcome).Inc()

	respond.JSON(w, http.StatusOK, outcomeDTO{
		CallbackID:     event.CallbackID,
		Success:        event.Success,
		StatusCode:     event.StatusCode,
		ResponseTimeMs: event.ResponseTimeMs,
		Error:          event.Error,
		TriggeredAt:    event.TriggeredAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
