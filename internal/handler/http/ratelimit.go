package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/handler/http/respond"
)

// UserRateLimiter applies a per-user token-bucket rate limit to mutation
// endpoints. Keys are authenticated user IDs, so it must run after the auth
// middleware; unauthenticated requests fall back to a single shared bucket
// keyed by user 0 (they should have been rejected already).
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*limiterEntry

	limit rate.Limit
	burst int

	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idleLimiterTTL is how long an inactive user's bucket survives before the
// periodic sweep drops it.
const idleLimiterTTL = 10 * time.Minute

// NewUserRateLimiter creates a limiter allowing rps sustained requests per
// user with the given burst.
func NewUserRateLimiter(rps float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limiters:  make(map[int64]*limiterEntry),
		limit:     rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Limit applies the per-user rate limit and returns 429 when exceeded.
func (l *UserRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID int64
		if id, ok := auth.FromContext(r.Context()); ok {
			userID = id.UserID
		}

		if !l.allow(userID) {
			w.Header().Set("Retry-After", "1")
			respond.Error(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow reports whether the user may proceed and records the attempt.
func (l *UserRateLimiter) allow(userID int64) bool {
	now := time.Now()

	l.mu.Lock()
	entry, ok := l.limiters[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	l.sweepLocked(now)
	l.mu.Unlock()

	return entry.limiter.Allow()
}

// sweepLocked drops buckets idle past the TTL. Runs at most once per TTL so
// the hot path stays a map lookup. Caller holds the mutex.
func (l *UserRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < idleLimiterTTL {
		return
	}
	l.lastSweep = now
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > idleLimiterTTL {
			delete(l.limiters, id)
		}
	}
}
