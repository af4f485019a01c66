package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestHandlerSplitsErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(NewHandler(slog.LevelDebug, &out, &errOut)).With("dev", "i8042")

	logger.Debug("scancode", "value", "0x1e")
	logger.Error("port fault")
	logger.Log(context.Background(), LevelTrace, "hidden")

	assert.Contains(t, out.String(), "scancode")
	assert.Contains(t, out.String(), "dev=i8042")
	assert.NotContains(t, out.String(), "port fault")
	assert.Contains(t, errOut.String(), "port fault")
	assert.NotContains(t, errOut.String(), "scancode")
	assert.NotContains(t, out.String(), "hidden")
}

func TestSetupLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbdsim.log")
	logger, closers, err := SetupLogger("info", path)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.WithGroup("platform").Info("ready", "vector", "0x21")
	logger.Debug("dropped")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "platform.vector=0x21")
	assert.NotContains(t, string(data), "dropped")
}

func TestSetupLoggerBadFile(t *testing.T) {
	_, _, err := SetupLogger("info", filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}
