package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"hookrelay/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "default log level (info)", logLevel: ""},
		{name: "debug log level", logLevel: "debug"},
		{name: "warn log level", logLevel: "warn"},
		{name: "invalid log level defaults to info", logLevel: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}

			// Act
			logger := NewLogger()

			// Assert
			assert.NotNil(t, logger, "logger should not be nil")
		})
	}
}

func TestWithRequestID(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	baseLogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := requestid.WithRequestID(context.Background(), "req-123")

	// Act
	logger := WithRequestID(ctx, baseLogger)
	logger.Info("test message")

	// Assert
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err, "output should be valid JSON")
	assert.Equal(t, "req-123", logEntry["request_id"])
	assert.Equal(t, "test message", logEntry["msg"])
}

func TestWithRequestID_EmptyRequestID(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	baseLogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Act
	logger := WithRequestID(context.Background(), baseLogger)
	logger.Info("test message")

	// Assert
	assert.Contains(t, buf.String(), "test message")
	assert.NotContains(t, buf.String(), "request_id", "should not contain request_id field")
}

func TestWithFields(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	baseLogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Act
	logger := WithFields(baseLogger, map[string]interface{}{
		"user_id":     "user-456",
		"callback_id": 3,
	})
	logger.Info("test message")

	// Assert
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err, "output should be valid JSON")
	assert.Equal(t, "user-456", logEntry["user_id"])
	assert.Equal(t, float64(3), logEntry["callback_id"])
}

func TestFromContext(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	// Act
	retrieved := FromContext(ctx)
	retrieved.Info("test message")

	// Assert
	assert.Contains(t, buf.String(), "test message", "should use the logger from context")
	assert.Equal(t, slog.Default(), FromContext(context.Background()), "missing logger falls back to default")
}
