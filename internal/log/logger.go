// Package log provides structured logging for task processes and the CLI.
// Output goes to stderr by default because stdout carries the task protocol.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/runqy/runqy-go/internal/config"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys carried into log records.
const (
	TaskIDKey ContextKey = "task_id"
	QueueKey  ContextKey = "queue"
)

// Logger wraps slog.Logger and adds task correlation from the context.
type Logger struct {
	logger *slog.Logger
}

// New wraps l. A nil l selects slog.Default().
func New(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{logger: l}
}

// NewLogger creates a Logger from configuration, writing to stderr.
func NewLogger(cfg config.AppConfig) *Logger {
	return NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
}

// NewLoggerWithWriter creates a Logger that writes to w.
func NewLoggerWithWriter(w io.Writer, format config.LogFormat, level string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewConsoleHandler(w, opts)
	}
	return New(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// WithContext returns a logger carrying the task ID and queue stored in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var attrs []any
	if id := TaskID(ctx); id != "" {
		attrs = append(attrs, string(TaskIDKey), id)
	}
	if q := Queue(ctx); q != "" {
		attrs = append(attrs, string(QueueKey), q)
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{logger: l.logger.With(attrs...)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// WithTaskID adds a task ID to the context.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TaskIDKey, id)
}

// WithQueue adds a queue name to the context.
func WithQueue(ctx context.Context, queue string) context.Context {
	return context.WithValue(ctx, QueueKey, queue)
}

// TaskID extracts the task ID from ctx.
func TaskID(ctx context.Context) string {
	id, _ := ctx.Value(TaskIDKey).(string)
	return id
}

// Queue extracts the queue name from ctx.
func Queue(ctx context.Context) string {
	q, _ := ctx.Value(QueueKey).(string)
	return q
}
