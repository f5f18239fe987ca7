// Package notifier provides the outbound delivery clients for notification
// channels: the Slack Incoming Webhook sender and the Web Push provider
// client. Implementations handle rate limiting and error classification
// internally; record mutations (such as deleting an expired push
// subscription) are the orchestrator's responsibility.
package notifier

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

// RateLimitError represents a 429 rate limit error from a delivery provider.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a delivery provider.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a delivery provider.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// SubscriptionExpiredError indicates that a push service reported the
// subscription endpoint permanently gone (HTTP 404 or 410). The caller should
// delete the stored subscription record rather than retry.
type SubscriptionExpiredError struct {
	StatusCode int
	Endpoint   string
}

func (e *SubscriptionExpiredError) Error() string {
	return fmt.Sprintf("push subscription expired (status %d)", e.StatusCode)
}

// IsSubscriptionExpired reports whether err indicates a permanently invalid
// push subscription.
func IsSubscriptionExpired(err error) bool {
	var expired *SubscriptionExpiredError
	return errors.As(err, &expired)
}

// classifyPushStatus maps a push-service HTTP status to a typed error.
// 404 and 410 are the provider's "endpoint gone" signals; everything else
// non-2xx is transient or a configuration problem.
func classifyPushStatus(statusCode int, endpoint string) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		return &SubscriptionExpiredError{StatusCode: statusCode, Endpoint: endpoint}
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{Message: "push service rate limit exceeded"}
	case statusCode >= 400 && statusCode < 500:
		return &ClientError{StatusCode: statusCode, Message: fmt.Sprintf("push service client error: status %d", statusCode)}
	case statusCode >= 500:
		return &ServerError{StatusCode: statusCode, Message: fmt.Sprintf("push service server error: status %d", statusCode)}
	}
	return fmt.Errorf("unexpected push service status %d", statusCode)
}

// truncate shortens text to maxLength characters, appending suffix when
// anything was cut.
func truncate(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	truncateAt := maxLength - len(suffix)
	if truncateAt < 0 {
		truncateAt = 0
	}
	return text[:truncateAt] + suffix
}
