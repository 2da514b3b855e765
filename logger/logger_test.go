package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	// 只验证不会 panic
	t.Run("Info", func(t *testing.T) {
		Info("test info message", "component", "test")
	})
	t.Run("Warn", func(t *testing.T) {
		Warn("test warning message", "pid", 42)
	})
	t.Run("Error", func(t *testing.T) {
		Error("test error message", "error", "sample error")
	})
	t.Run("Debug", func(t *testing.T) {
		Debug("test debug message", "debug", true)
	})
}

func TestGetReturnsSameInstance(t *testing.T) {
	l := Get()
	assert.NotNil(t, l)
	assert.Same(t, l, Get())
	assert.NotNil(t, With("service", "test"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
