package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNoopLogger(t *testing.T) {
	logger := GetNoopLogger()

	// Must not panic and must keep returning a usable logger.
	logger.Debug("debug", "k", 1)
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	child := logger.WithField("component", "test")
	if child == nil {
		t.Fatal("WithField returned nil")
	}
	child.Info("child message")
}

func TestSlogLogger(t *testing.T) {
	t.Run("forwards messages with fields", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		logger := NewSlogLogger(base).WithField("tool", "search")
		logger.Info("invoked", "request_id", "abc")

		out := buf.String()
		if !strings.Contains(out, "invoked") {
			t.Errorf("output missing message: %s", out)
		}
		if !strings.Contains(out, "tool=search") {
			t.Errorf("output missing scoped field: %s", out)
		}
		if !strings.Contains(out, "request_id=abc") {
			t.Errorf("output missing arg field: %s", out)
		}
	})

	t.Run("nil slog logger falls back to default", func(t *testing.T) {
		logger := NewSlogLogger(nil)
		if logger == nil {
			t.Fatal("NewSlogLogger(nil) returned nil")
		}
	})

	t.Run("child loggers do not share fields with parent", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))

		parent := NewSlogLogger(base)
		_ = parent.WithField("scope", "child")
		parent.Info("parent message")

		if strings.Contains(buf.String(), "scope=child") {
			t.Errorf("parent logger leaked child field: %s", buf.String())
		}
	})
}
