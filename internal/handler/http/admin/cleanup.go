// Package admin exposes operator endpoints. Routes in this package are
// mounted behind the admin-role check.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"hookrelay/internal/handler/http/requestid"
	"hookrelay/internal/handler/http/respond"
	"hookrelay/internal/usecase/cleanup"
)

// Sweeper runs the stale push subscription sweep, satisfied by
// *cleanup.Service.
type Sweeper interface {
	Sweep(ctx context.Context) (cleanup.Result, error)
}

// CleanupHandler serves POST /api/admin/push/cleanup: an on-demand run of the
// stale subscription sweep, for operators who do not want to wait for the
// scheduled one.
type CleanupHandler struct{ Svc Sweeper }

func (h CleanupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.Sweep(r.Context())
	if err != nil {
		slog.Error("manual cleanup sweep failed",
			slog.String("request_id", requestid.FromContext(r.Context())),
			slog.Any("error", err))
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]int{
		"deleted": result.Deleted,
		"scanned": result.Scanned,
	})
}
