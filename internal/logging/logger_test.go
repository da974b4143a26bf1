package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"conecta-ongs/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandler_AddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := localLogger(&buf, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("sessionId", "abc"))
	ctx = AppendCtx(ctx, slog.String("requestId", "r-1"))
	logger.InfoContext(ctx, "transition applied")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "transition applied", record["msg"])
	assert.Equal(t, "abc", record["sessionId"])
	assert.Equal(t, "r-1", record["requestId"])
}

func TestAppendCtx_DoesNotLeakIntoParent(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("a", "1"))
	_ = AppendCtx(parent, slog.String("b", "2"))

	assert.Len(t, attrsFromCtx(parent), 1)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestGetLogger_Local(t *testing.T) {
	logger := GetLogger(config.Logs{Level: "debug"})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
