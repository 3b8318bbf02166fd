package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevelFromConfig(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for raw, want := range cases {
		require.Equal(t, want, logLevel(&Config{LogLevel: raw}), raw)
	}
	require.Equal(t, slog.LevelInfo, logLevel(nil))
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	logger := NewLogger(&Config{LogFormat: "pretty", LogLevel: "warn"})
	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
