package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"hookrelay/internal/handler/http/auth"
	"hookrelay/internal/handler/http/respond"
)

// SlackTestHandler serves POST /api/notifications/slack/test: it posts a test
// message to the submitted webhook URL so the user can confirm the
// integration from the settings page before saving.
//
// URLs outside the Slack Incoming Webhook prefix are rejected with 400 before
// any network traffic. A well-formed URL that fails to deliver is not an
// error; the response reports ok=false and the user rechecks their webhook.
type SlackTestHandler struct{ Svc Service }

func (h SlackTestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respond.Error(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	var req struct {
		WebhookURL string `json:"webhook_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.WebhookURL == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("webhook_url is required"))
		return
	}

	delivered, err := h.Svc.TestSlackWebhook(r.Context(), req.WebhookURL)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"ok": delivered})
}
