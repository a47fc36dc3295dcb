package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextAccumulates(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b-1")
	ctx = WithProject(ctx, "demo")
	ctx = WithTarget(ctx, "app")

	assert.Equal(t, Scope{BuildID: "b-1", Project: "demo", Target: "app"}, FromContext(ctx))
	assert.Equal(t, Scope{}, FromContext(context.Background()))

	// Narrowing a child context leaves the parent untouched.
	child := WithTarget(ctx, "tool")
	assert.Equal(t, "tool", FromContext(child).Target)
	assert.Equal(t, "app", FromContext(ctx).Target)
	assert.Empty(t, Scope{}.Attrs())
}

func TestInfoContextAddsAttributes(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithTarget(WithBuildID(t.Context(), "b-2"), "app")

	InfoContext(ctx, "Compiled", slog.String("source", "src/main.c"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Compiled", line["msg"])
	assert.Equal(t, "b-2", line["build_id"])
	assert.Equal(t, "app", line["target"])
	assert.Equal(t, "src/main.c", line["source"])
	assert.NotContains(t, line, "project")
}

func TestLevels(t *testing.T) {
	buf := captureLogs(t)
	ctx := t.Context()

	DebugContext(ctx, "d")
	WarnContext(ctx, "w")
	ErrorContext(ctx, "e")

	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
