package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "cloudview.log")
	logger, closer := InitLogger(slog.LevelInfo, path, false)
	logger.Info("fetched inventory", "region", "us-east-1")
	logger.Debug("dropped")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "fetched inventory", entry["msg"])
	assert.Equal(t, "us-east-1", entry["region"])
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var info, debug bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(h).With("component", "test")
	logger.Debug("only in debug")

	assert.Empty(t, info.String())
	assert.Contains(t, debug.String(), "only in debug")
	assert.Contains(t, debug.String(), "component=test")
}
