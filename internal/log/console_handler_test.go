package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, true)

	ts := time.Date(2026, 1, 15, 10, 30, 45, 123000000, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "task completed", 0)
	r.AddAttrs(slog.String("task_id", "t1"))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"10:30:45.123", "INF", "task completed", "task_id=t1"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline, got: %q", output)
	}
}

func TestConsoleHandler_Levels(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, true)

			r := slog.NewRecord(time.Now(), tt.level, "msg", 0)
			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestConsoleHandler_Enabled(t *testing.T) {
	h := newConsoleHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}, true)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestConsoleHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, nil, true))

	logger.With("component", "client").
		WithGroup("http").
		Info("request", "status", 200, "duration", 1500*time.Millisecond, "ok", true)

	output := buf.String()
	for _, want := range []string{"component=client", "http.status=200", "http.duration=1.5s", "http.ok=true"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestConsoleHandler_NestedGroupAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, nil, true))

	logger.Info("loaded", slog.Group("model", slog.String("name", "resnet"), slog.Int("layers", 50)))

	output := buf.String()
	if !strings.Contains(output, "model.name=resnet") || !strings.Contains(output, "model.layers=50") {
		t.Errorf("expected flattened group attrs, got: %s", output)
	}
}

func TestConsoleHandler_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, nil, true))

	logger.Error("load failed", "error", errors.New("model file missing"))

	if !strings.Contains(buf.String(), "model file missing") {
		t.Errorf("expected error text in output, got: %s", buf.String())
	}
}

func TestConsoleHandler_NoColourWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, nil))

	logger.Info("plain")

	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("expected no ANSI codes for a non-terminal writer, got: %q", buf.String())
	}
}
