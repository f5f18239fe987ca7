// Package stream serves the realtime notification feed over Server-Sent
// Events. Each authenticated user holds at most one stream; reconnecting
// displaces the previous connection.
package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/handler/http/respond"
	"hookrelay/internal/realtime"
)

var sseConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "sse_connections_active",
		Help: "Current number of live SSE connections",
	},
)

// defaultHeartbeatInterval keeps proxies from reaping idle streams. Most
// reverse proxies time out idle upstreams at 60 seconds.
const defaultHeartbeatInterval = 30 * time.Second

// Handler serves GET /api/notifications/stream.
//
// The route must be mounted outside the timeout and metrics middleware: the
// former would kill the stream, the latter wraps the ResponseWriter in a type
// that no longer implements http.Flusher.
type Handler struct {
	Registry *realtime.Registry

	// HeartbeatInterval overrides the ping cadence; zero means the default.
	// Tests shorten it.
	HeartbeatInterval time.Duration
}

// flushWriter adapts an http.ResponseWriter plus its http.Flusher into the
// realtime.EventSink the registry writes to.
type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) { return fw.w.Write(p) }
func (fw flushWriter) Flush()                      { fw.f.Flush() }

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disables buffering in nginx; harmless elsewhere.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	conn := h.Registry.Register(id.UserID, flushWriter{w: w, f: flusher})
	sseConnections.Set(float64(h.Registry.Count()))
	defer func() {
		h.Registry.Unregister(conn)
		sseConnections.Set(float64(h.Registry.Count()))
	}()

	interval := h.HeartbeatInterval
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Client went away.
			return
		case <-conn.Closed():
			// Displaced by a newer connection or shut down.
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}
