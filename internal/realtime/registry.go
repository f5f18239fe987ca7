// Package realtime maintains the set of live Server-Sent Events connections
// and fans notifications out to them. The registry holds at most one
// connection per user; a new connection for the same user displaces the old
// one (last connect wins), which matches how a browser tab reconnecting after
// a network blip should behave.
package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"hookrelay/internal/domain/entity"
)

// EventSink is the write side of an SSE connection. http.ResponseWriter
// satisfies Write; the Flush half comes from http.Flusher. The handler
// adapts the two into one value before registering.
type EventSink interface {
	io.Writer
	Flush()
}

// Conn is one registered SSE connection. Writes are serialized by an
// internal mutex because the dispatch pipeline and the heartbeat ticker
// both write to the same sink.
type Conn struct {
	userID int64
	sink   EventSink

	mu        sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

// Closed is signaled when the connection has been displaced by a newer
// connection, removed after a write failure, or shut down. The handler
// selects on it to end the request.
func (c *Conn) Closed() <-chan struct{} {
	return c.closed
}

// UserID returns the user this connection belongs to.
func (c *Conn) UserID() int64 {
	return c.userID
}

func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// writeEvent frames the payload as an SSE data event and flushes it.
func (c *Conn) writeEvent(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return fmt.Errorf("connection closed")
	default:
	}

	if _, err := fmt.Fprintf(c.sink, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	c.sink.Flush()
	return nil
}

// Ping writes an SSE comment frame. Comments are ignored by EventSource
// clients but keep intermediaries from timing out an idle connection.
// A failed ping means the peer is gone; the caller should unregister.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return fmt.Errorf("connection closed")
	default:
	}

	if _, err := io.WriteString(c.sink, ": ping\n\n"); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}
	c.sink.Flush()
	return nil
}

// Registry maps user IDs to their single live SSE connection.
//
// All methods are safe for concurrent use. The registry is process-local:
// horizontal scaling would need sticky routing or a shared broker, which is
// out of scope for a single-process deployment.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]*Conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]*Conn)}
}

// Register adds a connection for the user, displacing any existing one.
// The displaced connection is closed so its handler unwinds. A "connected"
// event is written immediately so the client knows the stream is live.
func (r *Registry) Register(userID int64, sink EventSink) *Conn {
	conn := &Conn{
		userID: userID,
		sink:   sink,
		closed: make(chan struct{}),
	}

	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if prev != nil {
		prev.close()
		slog.Debug("displaced prior realtime connection", slog.Int64("user_id", userID))
	}

	hello := entity.NewNotification("connected", "", "", nil)
	if payload, err := json.Marshal(hello); err == nil {
		if err := conn.writeEvent(payload); err != nil {
			r.Unregister(conn)
		}
	}
	return conn
}

// Unregister removes the connection and closes it. The map entry is removed
// only when it still points at this connection, so a handler unwinding after
// being displaced cannot evict its successor.
func (r *Registry) Unregister(conn *Conn) {
	r.mu.Lock()
	if r.conns[conn.userID] == conn {
		delete(r.conns, conn.userID)
	}
	r.mu.Unlock()
	conn.close()
}

// SendToUser delivers the notification to the user's live connection.
//
// Returns false when the user has no connection or the write fails. A write
// failure means the peer is gone, so the connection is removed immediately
// rather than left to fail every subsequent send.
func (r *Registry) SendToUser(userID int64, notification *entity.Notification) bool {
	r.mu.RLock()
	conn := r.conns[userID]
	r.mu.RUnlock()

	if conn == nil {
		return false
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		slog.Error("marshal realtime notification",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return false
	}

	if err := conn.writeEvent(payload); err != nil {
		slog.Debug("removing dead realtime connection",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		r.Unregister(conn)
		return false
	}
	return true
}

// Broadcast delivers the notification to every live connection and returns
// the number of successful deliveries. Dead connections found along the way
// are removed.
func (r *Registry) Broadcast(notification *entity.Notification) int {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	payload, err := json.Marshal(notification)
	if err != nil {
		slog.Error("marshal broadcast notification", slog.Any("error", err))
		return 0
	}

	delivered := 0
	for _, conn := range conns {
		if err := conn.writeEvent(payload); err != nil {
			r.Unregister(conn)
			continue
		}
		delivered++
	}
	return delivered
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes every connection and empties the registry. Called during
// graceful shutdown so in-flight stream handlers unwind promptly.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[int64]*Conn)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
}
