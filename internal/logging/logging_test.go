package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestLoggerWritesJSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf}, "movie-service")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	logger.WarnContext(ctx, "Review tree anomaly",
		slog.Int64("reviewID", 7),
		slog.Group("movie", slog.Int64("id", 3)),
		slog.Any("error", errors.New("boom")))

	entry := decode(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Review tree anomaly", entry["message"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "movie-service", entry["service"])
	assert.EqualValues(t, 7, entry["reviewID"])
	assert.EqualValues(t, 3, entry["movie.id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf}, "")

	logger.Info("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestWithGroupPrefixesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Output: &buf}, "")

	logger.WithGroup("http").Debug("request", slog.Int("status", 201))
	entry := decode(t, &buf)
	assert.EqualValues(t, 201, entry["http.status"])
	assert.Equal(t, "debug", entry["level"])
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	id := NewRequestID()
	assert.Len(t, id, 36)
	assert.Equal(t, id, RequestIDFromContext(ContextWithRequestID(context.Background(), id)))
}
