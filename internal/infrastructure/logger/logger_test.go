package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/ipagency/backend/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
	}{
		{name: "console format", cfg: config.LogConfig{Level: "debug", Format: "console", Output: "stdout"}},
		{name: "json format", cfg: config.LogConfig{Level: "info", Format: "json", Output: "stdout"}},
		{name: "stderr output", cfg: config.LogConfig{Level: "warn", Format: "json", Output: "stderr"}},
		{name: "unknown level falls back to info", cfg: config.LogConfig{Level: "bogus", Format: "json", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	assert.NotNil(t, NewForEnvironment("development"))
	assert.NotNil(t, NewForEnvironment("production"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"", zapcore.InfoLevel},
		{"nonsense", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestContextLogger(t *testing.T) {
	logger := NewForEnvironment("development")

	t.Run("round-trips logger through context", func(t *testing.T) {
		ctx := WithContext(context.Background(), logger)
		assert.NotNil(t, FromContext(ctx))
	})

	t.Run("missing logger yields no-op", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("request id", func(t *testing.T) {
		ctx, enriched := WithRequestID(context.Background(), logger, "req-123")
		assert.NotNil(t, enriched)
		assert.Equal(t, "req-123", GetRequestID(ctx))
	})

	t.Run("user id", func(t *testing.T) {
		ctx, enriched := WithUserID(context.Background(), logger, "user-42")
		assert.NotNil(t, enriched)
		assert.Equal(t, "user-42", GetUserID(ctx))
	})

	t.Run("missing values are empty", func(t *testing.T) {
		assert.Empty(t, GetRequestID(context.Background()))
		assert.Empty(t, GetUserID(context.Background()))
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.NotEqual(t, MapGormLogLevel("silent"), MapGormLogLevel("info"))
	assert.Equal(t, MapGormLogLevel("warn"), MapGormLogLevel("unknown"))
}
