// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling with sanitization to prevent leaking sensitive information.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hookrelay/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent; the failure can only be logged.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// DomainError maps domain-layer errors to HTTP responses:
// validation failures to 400, missing entities to 404, tier entitlement to
// 403, everything else to a sanitized 500. Handlers that know a better status
// pass it to SafeError directly instead.
func DomainError(w http.ResponseWriter, err error) {
	var vErr *entity.ValidationError
	switch {
	case errors.As(err, &vErr):
		JSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Message,
			"field": vErr.Field,
		})
	case errors.Is(err, entity.ErrNotFound):
		Error(w, http.StatusNotFound, entity.ErrNotFound)
	case errors.Is(err, entity.ErrInvalidInput):
		Error(w, http.StatusBadRequest, entity.ErrInvalidInput)
	case errors.Is(err, entity.ErrTierNotEntitled):
		Error(w, http.StatusForbidden, entity.ErrTierNotEntitled)
	default:
		SafeError(w, http.StatusInternalServerError, err)
	}
}

// SafeError sanitizes error messages before returning them to users.
// Internal errors (e.g., database errors) are returned as "internal server error",
// with details logged for debugging. Safe errors (validation errors) are returned as-is.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()

	// Messages safe to show: user-input problems phrased for users.
	safeErrors := []string{
		"required",
		"invalid",
		"not found",
		"already exists",
		"must be",
		"must start with",
		"cannot be",
		"too long",
		"too short",
		"exceeds",
	}

	isSafe := false
	lowerMsg := strings.ToLower(msg)
	for _, safe := range safeErrors {
		if strings.Contains(lowerMsg, safe) {
			isSafe = true
			break
		}
	}

	// 5xx responses never expose internals regardless of wording.
	if code >= 500 {
		isSafe = false
	}

	if isSafe {
		JSON(w, code, map[string]string{"error": msg})
	} else {
		logger := slog.Default()
		logger.Error("internal server error",
			slog.String("status", http.StatusText(code)),
			slog.Int("code", code),
			slog.String("error", SanitizeError(err)))
		JSON(w, code, map[string]string{"error": "internal server error"})
	}
}
