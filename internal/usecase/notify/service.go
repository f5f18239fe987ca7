package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"hookrelay/internal/domain/entity"
	"hookrelay/internal/infra/notifier"
	"hookrelay/internal/repository"
	"hookrelay/internal/resilience/circuitbreaker"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

// Dispatch timeouts
const (
	assemblyTimeout     = 10 * time.Second // settings/tier/stats queries
	workerPoolTimeout   = 5 * time.Second  // acquiring a worker slot
	notificationTimeout = 30 * time.Second // one channel delivery
	cleanupTimeout      = 5 * time.Second  // expired-subscription delete
)

// Service orchestrates trigger-outcome fan-out across notification channels.
// It dispatches asynchronously without blocking the caller.
type Service interface {
	// NotifyTriggerOutcome dispatches the outcome of one callback invocation
	// to every channel the owning user has enabled.
	//
	// This method is non-blocking and returns immediately. Settings lookup,
	// statistics assembly, and channel deliveries all happen in background
	// goroutines; failures are logged and counted but never propagate, so
	// the trigger path cannot be broken by a notification problem.
	//
	// Returns:
	//   - nil (always; errors are handled internally)
	NotifyTriggerOutcome(ctx context.Context, event *entity.TriggerEvent) error

	// GetChannelHealth returns circuit breaker state per channel for
	// monitoring and health endpoints.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown stops the service, waiting for in-flight deliveries to
	// finish or the context to expire.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus reports the breaker state of one channel.
type ChannelHealthStatus struct {
	Name               string
	CircuitBreakerOpen bool
}

// service is the concrete implementation of Service.
type service struct {
	channels []Channel
	settings repository.SettingsRepository
	accounts repository.AccountRepository
	subs     repository.PushSubscriptionRepository
	stats    *ContextBuilder

	breakers   map[string]*circuitbreaker.CircuitBreaker
	workerPool chan struct{} // semaphore bounding concurrent deliveries

	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates the fan-out orchestrator.
//
// Each channel gets its own circuit breaker so a failing Slack workspace
// cannot stop push deliveries. maxConcurrent bounds deliveries in flight
// across all channels (recommended: 10-20).
func NewService(
	channels []Channel,
	settings repository.SettingsRepository,
	accounts repository.AccountRepository,
	subs repository.PushSubscriptionRepository,
	stats *ContextBuilder,
	maxConcurrent int,
) Service {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:       channels,
		settings:       settings,
		accounts:       accounts,
		subs:           subs,
		stats:          stats,
		breakers:       make(map[string]*circuitbreaker.CircuitBreaker),
		workerPool:     make(chan struct{}, maxConcurrent),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	for _, ch := range channels {
		svc.breakers[ch.Name()] = circuitbreaker.New(breakerConfig(ch.Name()))
	}

	return svc
}

// breakerConfig picks the breaker preset for a channel name.
func breakerConfig(name string) circuitbreaker.Config {
	var cfg circuitbreaker.Config
	switch name {
	case "slack":
		cfg = circuitbreaker.SlackWebhookConfig()
	case "push":
		cfg = circuitbreaker.WebPushConfig()
	default:
		cfg = circuitbreaker.DefaultConfig("notify-" + name)
	}
	cfg.OnOpen = RecordCircuitBreakerOpen
	return cfg
}

// NotifyTriggerOutcome implements Service.NotifyTriggerOutcome.
func (s *service) NotifyTriggerOutcome(ctx context.Context, event *entity.TriggerEvent) error {
	if event == nil {
		slog.Warn("notification dispatch skipped: nil event")
		return nil
	}
	if err := event.Validate(); err != nil {
		slog.Warn("notification dispatch skipped: invalid event",
			slog.Int64("callback_id", event.CallbackID),
			slog.Any("error", err))
		return nil
	}

	// Inherit the request ID from the trigger path when present.
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		requestID = uuid.New().String()
	}

	s.wg.Add(1)
	go s.dispatch(requestID, event)
	return nil
}

// dispatch assembles the delivery request and fans out to eligible channels.
// Runs in its own goroutine so the trigger path never waits on the settings
// or statistics queries.
func (s *service) dispatch(requestID string, event *entity.TriggerEvent) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic assembling notification dispatch",
				slog.String("request_id", requestID),
				slog.Int64("callback_id", event.CallbackID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	ctx, cancel := context.WithTimeout(s.shutdownCtx, assemblyTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	req := s.assemble(ctx, requestID, event)

	eligible := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.Eligible(req) {
			eligible = append(eligible, ch)
		}
	}
	if len(eligible) == 0 {
		slog.Debug("no eligible notification channels",
			slog.String("request_id", requestID),
			slog.Int64("user_id", event.UserID),
			slog.Int64("callback_id", event.CallbackID))
		return
	}

	slog.Info("dispatching trigger notification",
		slog.String("request_id", requestID),
		slog.Int64("user_id", event.UserID),
		slog.Int64("callback_id", event.CallbackID),
		slog.Bool("trigger_success", event.Success),
		slog.Int("eligible_channels", len(eligible)))

	for _, ch := range eligible {
		channel := ch // capture for goroutine
		s.wg.Add(1)
		go s.deliver(requestID, channel, req)
	}
}

// assemble gathers settings, tier, day statistics, and the push subscription
// for the event's user. Every lookup degrades instead of failing: missing or
// unreadable settings become defaults, an unknown tier becomes free, broken
// statistics become a quiet-day context. A notification with stale numbers
// beats no notification.
func (s *service) assemble(ctx context.Context, requestID string, event *entity.TriggerEvent) *DeliveryRequest {
	settings, err := s.settings.Get(ctx, event.UserID)
	if err != nil {
		slog.Warn("settings lookup failed, using defaults",
			slog.String("request_id", requestID),
			slog.Int64("user_id", event.UserID),
			slog.Any("error", err))
	}
	if settings == nil {
		settings = entity.DefaultSettings(event.UserID)
	}

	tier, err := s.accounts.GetTier(ctx, event.UserID)
	if err != nil {
		slog.Warn("tier lookup failed, assuming free tier",
			slog.String("request_id", requestID),
			slog.Int64("user_id", event.UserID),
			slog.Any("error", err))
		tier = entity.TierFree
	}

	// Fail-closed re-check: gated channels stay off even if the stored row
	// says otherwise.
	settings.ApplyTierGates(tier)

	stats, err := s.stats.Build(ctx, event.UserID, time.Now())
	if err != nil {
		slog.Warn("channel context build failed, using empty stats",
			slog.String("request_id", requestID),
			slog.Int64("user_id", event.UserID),
			slog.Any("error", err))
		stats = entity.NewChannelContext(0, 0, 0)
	}

	var sub *entity.PushSubscription
	if settings.PushEnabled {
		sub, err = s.subs.Get(ctx, event.UserID)
		if err != nil {
			slog.Warn("push subscription lookup failed",
				slog.String("request_id", requestID),
				slog.Int64("user_id", event.UserID),
				slog.Any("error", err))
			sub = nil
		}
	}

	return &DeliveryRequest{
		Event:        event,
		Stats:        stats,
		Settings:     settings,
		Tier:         tier,
		Subscription: sub,
	}
}

// deliver sends the request to a single channel in a goroutine.
func (s *service) deliver(requestID string, channel Channel, req *DeliveryRequest) {
	defer s.wg.Done()

	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	// Panic recovery: a panicking channel must not take down its siblings
	// or the process.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	// Acquire worker slot (with timeout to prevent unbounded queuing)
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		slog.Warn("notification dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "pool_full")
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	startTime := time.Now()
	RecordDispatch(channel.Name())

	_, err := s.breakers[channel.Name()].Execute(func() (interface{}, error) {
		return nil, channel.Send(ctx, req)
	})
	duration := time.Since(startTime)

	if err == nil {
		RecordSuccess(channel.Name(), duration)
		slog.Info("channel notification sent",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Int64("callback_id", req.Event.CallbackID),
			slog.Duration("send_duration", duration))
		return
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		slog.Warn("notification dropped: circuit breaker open",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "circuit_open")
		return
	}

	RecordFailure(channel.Name(), duration)
	slog.Warn("channel notification failed",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.Int64("callback_id", req.Event.CallbackID),
		slog.Duration("send_duration", duration),
		slog.Any("error", err))

	if notifier.IsSubscriptionExpired(err) {
		s.deleteExpiredSubscription(requestID, req.Event.UserID)
	}
}

// deleteExpiredSubscription removes the stored push subscription after the
// push service reported the endpoint gone (404/410). Uses a fresh context so
// the delete survives cancellation of the delivery that discovered it.
func (s *service) deleteExpiredSubscription(requestID string, userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.subs.Delete(ctx, userID); err != nil {
		slog.Warn("failed to delete expired push subscription",
			slog.String("request_id", requestID),
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return
	}

	RecordExpiredSubscription()
	slog.Info("deleted expired push subscription",
		slog.String("request_id", requestID),
		slog.Int64("user_id", userID))
}

// GetChannelHealth implements Service.GetChannelHealth.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			CircuitBreakerOpen: s.breakers[ch.Name()].IsOpen(),
		})
	}
	return statuses
}

// Shutdown implements Service.Shutdown.
func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notification service")

	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("notification service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}
