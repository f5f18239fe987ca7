package respond

import (
	"regexp"
)

var (
	// Slack webhook paths embed a signing secret in the final segment.
	slackWebhookPattern = regexp.MustCompile(`(hooks\.slack\.com/services/)[A-Za-z0-9/]+`)

	// Bearer tokens in echoed headers or wrapped client errors.
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`)

	// Database passwords inside DSNs.
	dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)
)

// SanitizeError returns the error message with credentials masked so it can
// be logged safely.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = slackWebhookPattern.ReplaceAllString(msg, "${1}****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
