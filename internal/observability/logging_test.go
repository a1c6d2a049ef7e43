package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextValues(t *testing.T) {
	ctx := WithStage(WithBuildID(context.Background(), "b-1"), "render")
	assert.Equal(t, LogContext{BuildID: "b-1", Stage: "render"}, GetContext(ctx))

	// A later stage replaces the earlier one but keeps the build ID.
	ctx = WithStage(ctx, "feeds")
	assert.Equal(t, LogContext{BuildID: "b-1", Stage: "feeds"}, GetContext(ctx))
	assert.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestLogFunctionsIncludeContext(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithStage(WithBuildID(context.Background(), "b-2"), "discover")

	InfoContext(ctx, "info message", slog.Int("count", 3))
	WarnContext(ctx, "warn message")
	ErrorContext(ctx, "error message")
	DebugContext(context.Background(), "plain")

	out := buf.String()
	assert.Contains(t, out, `level=INFO msg="info message" build.id=b-2 stage=discover count=3`)
	assert.Contains(t, out, `level=WARN msg="warn message" build.id=b-2`)
	assert.Contains(t, out, `level=ERROR msg="error message" build.id=b-2`)
	assert.Contains(t, out, `level=DEBUG msg=plain`)
	assert.NotContains(t, out, `msg=plain build.id`)
}
