package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("Warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_InfoLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "info", Console: &buf})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	logger.Debug("should be filtered")
	logger.Info("should appear", "mission_id", "m-1")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
	assert.Contains(t, out, "mission_id=m-1")
}

func TestNew_WritesToFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, closeFn, err := New(Options{Level: "debug", Console: &console, File: path})
	require.NoError(t, err)

	logger.Debug("to both")
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to both")
	assert.Contains(t, console.String(), "to both")
}

type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("down") }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h failingHandler) WithGroup(string) slog.Handler           { return h }

func TestMultiHandler_ContinuesPastFailure(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(failingHandler{}, nil, slog.NewTextHandler(&buf, nil))
	logger := slog.New(h).With("component", "scheduler").WithGroup("tick")

	logger.Info("still logged", "spawned", 1)

	out := buf.String()
	assert.Contains(t, out, "still logged")
	assert.Contains(t, out, "component=scheduler")
	assert.Contains(t, out, "tick.spawned=1")
	assert.Equal(t, int64(1), h.Dropped())
}

func TestMultiHandler_HandleJoinsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(failingHandler{}, slog.NewTextHandler(&buf, nil), failingHandler{})
	r := slog.NewRecord(time.Now(), slog.LevelWarn, "graylog down", 0)

	err := h.Handle(context.Background(), r)
	require.Error(t, err)
	assert.Equal(t, "down\ndown", err.Error())
	assert.Contains(t, buf.String(), "graylog down")
	assert.Equal(t, int64(2), h.Dropped())
}
