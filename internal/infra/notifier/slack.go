package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hookrelay/internal/domain/entity"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Timeout is the HTTP request timeout for Slack webhook posts.
	// Defaults to 5 seconds when zero.
	Timeout time.Duration
}

// DefaultSlackTimeout bounds Slack webhook posts so a slow Slack cannot hold
// a dispatch goroutine for longer than one trigger cycle.
const DefaultSlackTimeout = 5 * time.Second

// SlackNotifier posts trigger-outcome messages to user-configured Slack
// Incoming Webhook URLs. Unlike a fixed-destination notifier, the webhook URL
// is per-user and passed on every call.
type SlackNotifier struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier creates a SlackNotifier.
//
// The notifier is initialized with an HTTP client bounded by the configured
// timeout and a rate limiter at 1 request/second with burst of 1 (the Slack
// webhook limit is 1 message per second per webhook).
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultSlackTimeout
	}
	return &SlackNotifier{
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload is the JSON document posted to the webhook, carrying
// Block Kit blocks plus a colored attachment for the field table.
type SlackWebhookPayload struct {
	Text        string            `json:"text"`
	Blocks      []SlackBlock      `json:"blocks"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Fields   []SlackTextObject `json:"fields,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

// SlackAttachment colors the outcome summary green or red.
type SlackAttachment struct {
	Color  string       `json:"color"`
	Blocks []SlackBlock `json:"blocks,omitempty"`
}

const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
	maxDetailLength      = 500

	slackTruncationSuffix = "..."

	colorSuccess = "#2eb886"
	colorFailure = "#e01e5a"
)

// buildPayload renders a trigger outcome as a Slack message:
// a header line with the outcome glyph, a field table for the callback
// metadata and optional status/latency, the error detail when present,
// a stats context block, and a footer naming the triggering user.
func (s *SlackNotifier) buildPayload(event *entity.TriggerEvent, stats entity.ChannelContext) SlackWebhookPayload {
	glyph := "✅"
	headline := "Webhook trigger succeeded"
	color := colorSuccess
	if !event.Success {
		glyph = "❌"
		headline = "Webhook trigger failed"
		color = colorFailure
	}

	fallback := truncate(fmt.Sprintf("%s: %s", headline, event.CallbackName), maxFallbackLength, slackTruncationSuffix)

	fields := []SlackTextObject{
		{Type: "mrkdwn", Text: fmt.Sprintf("*Callback:*\n%s", event.CallbackName)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*URL:*\n%s", event.CallbackURL)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Triggered at:*\n%s", event.TriggeredAt.Format(time.RFC3339))},
	}
	if event.StatusCode != nil {
		fields = append(fields, SlackTextObject{
			Type: "mrkdwn", Text: fmt.Sprintf("*Status code:*\n%d", *event.StatusCode),
		})
	}
	if event.ResponseTimeMs != nil {
		fields = append(fields, SlackTextObject{
			Type: "mrkdwn", Text: fmt.Sprintf("*Response time:*\n%d ms", *event.ResponseTimeMs),
		})
	}

	blocks := []SlackBlock{
		{
			Type: "section",
			Text: &SlackTextObject{
				Type: "mrkdwn",
				Text: truncate(fmt.Sprintf("%s *%s*", glyph, headline), maxSectionTextLength, slackTruncationSuffix),
			},
		},
	}

	attachmentBlocks := []SlackBlock{{Type: "section", Fields: fields}}
	if event.Error != "" {
		attachmentBlocks = append(attachmentBlocks, SlackBlock{
			Type: "section",
			Text: &SlackTextObject{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Details:*\n%s", truncate(event.Error, maxDetailLength, slackTruncationSuffix)),
			},
		})
	}
	attachmentBlocks = append(attachmentBlocks,
		SlackBlock{
			Type: "context",
			Elements: []SlackTextObject{{
				Type: "mrkdwn",
				Text: fmt.Sprintf("Today: %d triggers • %.2f%% success • %.0f ms avg response",
					stats.TotalTriggersToday, stats.SuccessRate, stats.AvgResponseTimeMs),
			}},
		},
		SlackBlock{
			Type: "context",
			Elements: []SlackTextObject{{
				Type: "mrkdwn",
				Text: fmt.Sprintf("Triggered by %s", event.UserEmail),
			}},
		},
	)

	return SlackWebhookPayload{
		Text:   fallback,
		Blocks: blocks,
		Attachments: []SlackAttachment{
			{Color: color, Blocks: attachmentBlocks},
		},
	}
}

// post sends the payload to the webhook URL and classifies the response.
func (s *SlackNotifier) post(ctx context.Context, webhookURL string, payload SlackWebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Message: "Slack rate limit exceeded"}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Slack API client error: %s", string(body))}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Slack API server error: %s", string(body))}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// NotifyTest posts a short test message to the given webhook URL and reports
// whether delivery succeeded. Used by the settings surface so users can
// verify a webhook before saving it.
func (s *SlackNotifier) NotifyTest(ctx context.Context, webhookURL string) bool {
	if err := s.rateLimiter.Allow(ctx); err != nil {
		return false
	}

	payload := SlackWebhookPayload{
		Text: "Test notification: your webhook is configured correctly.",
		Blocks: []SlackBlock{{
			Type: "section",
			Text: &SlackTextObject{
				Type: "mrkdwn",
				Text: ":wave: *Test notification*: your webhook is configured correctly.",
			},
		}},
	}
	if err := s.post(ctx, webhookURL, payload); err != nil {
		slog.Warn("Slack test notification failed", slog.Any("error", err))
		return false
	}
	return true
}

// Notify posts a trigger-outcome message to the given webhook URL and reports
// whether delivery succeeded.
//
// It never returns an error: a failed post is logged and surfaces as false.
// Slack delivery is best-effort and its failures must not reach the trigger
// path. The webhook URL was validated against the Incoming Webhook prefix at
// settings-save time; this path does not re-validate it.
func (s *SlackNotifier) Notify(ctx context.Context, webhookURL string, event *entity.TriggerEvent, stats entity.ChannelContext) bool {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		requestID = uuid.New().String()
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}

	if err := s.rateLimiter.Allow(ctx); err != nil {
		slog.Warn("Slack rate limiter wait aborted",
			slog.String("request_id", requestID),
			slog.Int64("callback_id", event.CallbackID),
			slog.Any("error", err))
		return false
	}

	payload := s.buildPayload(event, stats)
	if err := s.post(ctx, webhookURL, payload); err != nil {
		slog.Warn("Slack notification failed",
			slog.String("request_id", requestID),
			slog.Int64("callback_id", event.CallbackID),
			slog.Bool("trigger_success", event.Success),
			slog.Any("error", err))
		return false
	}

	slog.Info("Slack notification sent",
		slog.String("request_id", requestID),
		slog.Int64("callback_id", event.CallbackID),
		slog.Bool("trigger_success", event.Success))
	return true
}
