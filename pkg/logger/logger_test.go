package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})

	log.With(Component("test")).Info("xp awarded", UserID(7), XPAmount(20), Err(errors.New("boom")))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "xp awarded", entry.Message)
	assert.Equal(t, "test", entry.Fields["component"])
	assert.Equal(t, float64(7), entry.Fields["user_id"])
	assert.Equal(t, float64(20), entry.Fields["xp_amount"])
	assert.Equal(t, "boom", entry.Fields["error"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.False(t, log.Enabled(LevelDebug))
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug, Format: FormatText})

	log.Debug("rating recomputed", PointID(3), Float64("rating", 3.75))

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "DEBUG rating recomputed")
	assert.Contains(t, line, "point_id=3")
	assert.Contains(t, line, "rating=3.75")
}

func TestLogger_WithDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Options{Output: &buf, Level: LevelInfo})
	_ = parent.With(String("child", "yes"))

	parent.Info("parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).WithRequestID("req-1")

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.NotNil(t, FromContext(context.Background()))
}
