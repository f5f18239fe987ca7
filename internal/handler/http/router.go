package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	adminHandler "hookrelay/internal/handler/http/admin"
	"hookrelay/internal/handler/http/auth"
	pushHandler "hookrelay/internal/handler/http/push"
	"hookrelay/internal/handler/http/requestid"
	settingsHandler "hookrelay/internal/handler/http/settings"
	streamHandler "hookrelay/internal/handler/http/stream"
	triggerHandler "hookrelay/internal/handler/http/trigger"
	"hookrelay/internal/realtime"
	"hookrelay/internal/usecase/notify"
)

// requestTimeout bounds ordinary API requests. The trigger path holds the
// ceiling: a 10 second outbound POST plus headroom for logging and dispatch
// handoff.
const requestTimeout = 15 * time.Second

// maxMutationBodyBytes caps mutation request bodies. The largest legitimate
// document is a full settings payload, well under this.
const maxMutationBodyBytes = 64 << 10

// RouterConfig collects everything the HTTP surface depends on.
type RouterConfig struct {
	DB     *sql.DB
	Logger *slog.Logger

	Auth      auth.Config
	RateLimit *UserRateLimiter

	Settings settingsHandler.Service
	Push     pushHandler.Service
	Trigger  triggerHandler.Executor
	Cleanup  adminHandler.Sweeper

	Notifier notify.Service
	Registry *realtime.Registry

	VAPIDPublicKey string
	Version        string
}

// NewRouter builds the route table with per-group middleware chains.
//
// The SSE stream route gets its own minimal chain: the logging, metrics, and
// timeout middlewares all wrap the ResponseWriter in types that hide
// http.Flusher or would cut the stream off, so the stream runs with only
// request IDs, panic recovery, and authentication.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	base := func(h http.Handler) http.Handler {
		return Chain(h,
			requestid.Middleware,
			Logging(cfg.Logger),
			Recover(cfg.Logger),
			MetricsMiddleware,
			Timeout(requestTimeout),
			InputValidation(),
		)
	}
	authed := func(h http.Handler) http.Handler {
		return base(auth.Middleware(cfg.Auth)(h))
	}
	mutation := func(h http.Handler) http.Handler {
		return base(Chain(h,
			auth.Middleware(cfg.Auth),
			cfg.RateLimit.Limit,
			LimitRequestBody(maxMutationBodyBytes),
		))
	}
	admin := func(h http.Handler) http.Handler {
		return base(Chain(h,
			auth.Middleware(cfg.Auth),
			auth.RequireAdmin,
		))
	}
	stream := func(h http.Handler) http.Handler {
		return Chain(h,
			requestid.Middleware,
			Recover(cfg.Logger),
			auth.Middleware(cfg.Auth),
		)
	}

	// Probes and metrics.
	mux.Handle("GET /healthz", base(&HealthHandler{
		DB:       cfg.DB,
		Notifier: cfg.Notifier,
		Realtime: cfg.Registry,
		Version:  cfg.Version,
	}))
	mux.Handle("GET /readyz", base(&ReadyHandler{DB: cfg.DB}))
	mux.Handle("GET /livez", base(&LiveHandler{}))
	mux.Handle("GET /metrics", MetricsHandler())

	// Notification settings.
	mux.Handle("GET /api/notifications/settings", authed(settingsHandler.GetHandler{Svc: cfg.Settings}))
	mux.Handle("PUT /api/notifications/settings", mutation(settingsHandler.UpdateHandler{Svc: cfg.Settings}))
	mux.Handle("POST /api/notifications/slack/test", mutation(settingsHandler.SlackTestHandler{Svc: cfg.Settings}))

	// Web Push subscriptions.
	mux.Handle("POST /api/notifications/push/subscribe", mutation(pushHandler.SubscribeHandler{Svc: cfg.Push}))
	mux.Handle("DELETE /api/notifications/push/subscribe", mutation(pushHandler.UnsubscribeHandler{Svc: cfg.Push}))
	mux.Handle("GET /api/notifications/push/vapid-key", base(pushHandler.VAPIDKeyHandler{PublicKey: cfg.VAPIDPublicKey}))

	// Realtime stream.
	mux.Handle("GET /api/notifications/stream", stream(streamHandler.Handler{Registry: cfg.Registry}))

	// Callback triggers.
	mux.Handle("POST /api/triggers/{id}", mutation(triggerHandler.ExecuteHandler{Svc: cfg.Trigger}))

	// Operator endpoints.
	mux.Handle("POST /api/admin/push/cleanup", admin(adminHandler.CleanupHandler{Svc: cfg.Cleanup}))

	return mux
}
