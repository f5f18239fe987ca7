package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hookrelay/pkg/config"
)

// healthServer exposes Prometheus metrics and readiness for the worker
// process. The worker has no request surface of its own, so this is the only
// way an orchestrator can see it.
type healthServer struct {
	srv   *http.Server
	ready atomic.Bool
}

// SetReady flips the /readyz answer. The worker reports ready once the
// scheduler is wired, not before the first sweep.
func (h *healthServer) SetReady(ready bool) {
	h.ready.Store(ready)
}

// startMetricsServer serves /metrics, /healthz, and /readyz on METRICS_PORT
// (default 9090) in the background.
func startMetricsServer(pool *sql.DB, logger *slog.Logger) *healthServer {
	hs := &healthServer{}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy"))
			return
		}
		_, _ = w.Write([]byte("healthy"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !hs.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		_, _ = w.Write([]byte("ready"))
	})

	addr := ":" + config.GetEnvString("METRICS_PORT", "9090")
	hs.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.String("addr", addr))
		if err := hs.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", slog.Any("error", err))
		}
	}()

	return hs
}
