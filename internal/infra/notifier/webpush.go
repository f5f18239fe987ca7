package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"hookrelay/internal/domain/entity"
)

// WebPushConfig contains the process-wide Web Push (VAPID) configuration.
// The keypair and subscriber contact must be set once before the first send.
type WebPushConfig struct {
	// VAPIDPublicKey and VAPIDPrivateKey are the URL-safe base64 VAPID keys.
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// Subscriber is the contact identifier sent to the push service,
	// typically a mailto: address.
	Subscriber string

	// Timeout bounds each delivery request. Defaults to 10 seconds when zero.
	Timeout time.Duration

	// TTL is how long (seconds) the push service may queue an undelivered
	// message. Defaults to one hour when zero.
	TTL int
}

// Validate checks that the configuration is complete enough to send.
func (c WebPushConfig) Validate() error {
	if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
		return fmt.Errorf("webpush: VAPID keypair is required")
	}
	if c.Subscriber == "" {
		return fmt.Errorf("webpush: subscriber contact is required")
	}
	return nil
}

// PushPayload is the JSON document delivered to the service worker.
type PushPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// maxPushPayloadBytes caps the encrypted payload size. Push services enforce
// limits around 4KB; staying at half that leaves room for the encryption
// overhead and keeps messages deliverable everywhere.
const maxPushPayloadBytes = 2048

// defaultPushTTL keeps undelivered messages queued for an hour.
const defaultPushTTL = 3600

// WebPushSender delivers payloads to browser push endpoints using the Web
// Push protocol with VAPID authentication.
//
// The sender is stateless: a SubscriptionExpiredError tells the caller the
// stored record should be deleted, but the sender itself never mutates
// records. That keeps delivery testable in isolation.
type WebPushSender struct {
	config     WebPushConfig
	httpClient *http.Client
}

// NewWebPushSender creates a WebPushSender with the given configuration.
func NewWebPushSender(config WebPushConfig) *WebPushSender {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if config.TTL <= 0 {
		config.TTL = defaultPushTTL
	}
	return &WebPushSender{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// marshalPayload encodes the payload, truncating free-text fields when the
// encoded form exceeds the size cap. Data is dropped entirely as a last
// resort; a trimmed notification still beats a rejected one.
func marshalPayload(payload PushPayload) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal push payload: %w", err)
	}
	if len(body) <= maxPushPayloadBytes {
		return body, nil
	}

	overshoot := len(body) - maxPushPayloadBytes
	if len(payload.Body) > overshoot {
		payload.Body = truncate(payload.Body, len(payload.Body)-overshoot, slackTruncationSuffix)
	} else {
		payload.Body = truncate(payload.Body, 120, slackTruncationSuffix)
		payload.Data = nil
	}

	body, err = json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal truncated push payload: %w", err)
	}
	if len(body) > maxPushPayloadBytes {
		payload.Data = nil
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal truncated push payload: %w", err)
		}
	}
	return body, nil
}

// Send encrypts and delivers the payload to the subscription's endpoint.
//
// Returns nil on 2xx. A 404 or 410 from the push service returns a
// SubscriptionExpiredError so the orchestrator can delete the record; other
// failures return RateLimitError, ClientError, ServerError, or a wrapped
// transport error, all of which are log-only for the caller.
func (s *WebPushSender) Send(ctx context.Context, sub *entity.PushSubscription, payload PushPayload) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if err := sub.Validate(); err != nil {
		return err
	}

	body, err := marshalPayload(payload)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.config.Subscriber,
		VAPIDPublicKey:  s.config.VAPIDPublicKey,
		VAPIDPrivateKey: s.config.VAPIDPrivateKey,
		TTL:             s.config.TTL,
	})
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return classifyPushStatus(resp.StatusCode, sub.Endpoint)
}

// Probe checks whether the subscription endpoint is still live by delivering
// a zero-TTL empty message. The push service drops the message immediately
// but still reports 404/410 for endpoints that are gone. Used by the cleanup
// sweep, never from the dispatch path.
func (s *WebPushSender) Probe(ctx context.Context, sub *entity.PushSubscription) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, nil, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.config.Subscriber,
		VAPIDPublicKey:  s.config.VAPIDPublicKey,
		VAPIDPrivateKey: s.config.VAPIDPrivateKey,
		TTL:             0,
	})
	if err != nil {
		return fmt.Errorf("probe push endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if err := classifyPushStatus(resp.StatusCode, sub.Endpoint); err != nil {
		slog.Debug("push endpoint probe failed",
			slog.Int64("user_id", sub.UserID),
			slog.Int("status", resp.StatusCode))
		return err
	}
	return nil
}
