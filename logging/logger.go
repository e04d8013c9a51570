// Package logging provides structured JSON logging on top of log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey struct{}

// Logger wraps slog.Logger with service-specific helpers.
type Logger struct {
	*slog.Logger
	level slog.Level
}

// NewLogger creates a JSON logger writing to stdout.
func NewLogger(level string) *Logger {
	return NewLoggerWithWriter(level, os.Stdout)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) *Logger {
	l := parseLevel(level)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     l,
		AddSource: l == slog.LevelDebug,
	})

	return &Logger{
		Logger: slog.New(handler),
		level:  l,
	}
}

// Discard returns a logger that drops every record. Used by tests and by
// components constructed without a logger.
func Discard() *Logger {
	return NewLoggerWithWriter("error", io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// WithContext returns a new context carrying the logger.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext retrieves the logger from ctx, falling back to an info logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l
	}
	return NewLogger("info")
}

// With returns a new logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
	}
}

// WithService returns a logger with the service name.
func (l *Logger) WithService(name string) *Logger {
	return l.With("service", name)
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithRequestID returns a logger with the request ID.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With("request_id", requestID)
}

// WithUserID returns a logger with the user ID.
func (l *Logger) WithUserID(userID string) *Logger {
	return l.With("user_id", userID)
}

// WithTenantID returns a logger with the tenant ID.
func (l *Logger) WithTenantID(tenantID string) *Logger {
	return l.With("tenant_id", tenantID)
}

// WithError returns a logger with the error message attached.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With("error", err.Error())
}

// Level returns the configured minimum level.
func (l *Logger) Level() slog.Level {
	return l.level
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Fatal logs at error level and exits.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
