package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newBufLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	l, buf := newBufLogger()
	ctx := context.Background()

	l.Debug(ctx, "d")
	l.Info(ctx, "i")
	l.Warn(ctx, "w")
	l.Error(ctx, "e")

	out := buf.String()
	for _, want := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestSlogLogger_With(t *testing.T) {
	l, buf := newBufLogger()

	child := l.With("module", "test")
	child.Info(context.Background(), "hello")

	if !strings.Contains(buf.String(), `"module":"test"`) {
		t.Fatalf("expected bound attribute in output, got %q", buf.String())
	}
}
