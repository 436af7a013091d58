// Package logging provides the structured logger contract used across the
// adapter, with a no-op default for library embedders that do not care
// about internal logs.
package logging

import "log/slog"

// Logger is the structured logging interface consumed by the adapter.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Debug logs a debug-level message with alternating key/value args.
	Debug(msg string, args ...any)

	// Info logs an info-level message.
	Info(msg string, args ...any)

	// Warn logs a warning-level message.
	Warn(msg string, args ...any)

	// Error logs an error-level message.
	Error(msg string, args ...any)

	// WithField returns a child logger that includes the given field on
	// every subsequent log line.
	WithField(key string, value any) Logger
}

// NoopLogger implements Logger but does nothing. It is the default for
// every component that is not given an explicit logger.
type NoopLogger struct{}

// Debug implements Logger and performs no action.
func (l *NoopLogger) Debug(_ string, _ ...any) {}

// Info implements Logger and performs no action.
func (l *NoopLogger) Info(_ string, _ ...any) {}

// Warn implements Logger and performs no action.
func (l *NoopLogger) Warn(_ string, _ ...any) {}

// Error implements Logger and performs no action.
func (l *NoopLogger) Error(_ string, _ ...any) {}

// WithField implements Logger, returning the NoopLogger itself.
func (l *NoopLogger) WithField(_ string, _ any) Logger { return l }

var noop = &NoopLogger{}

// GetNoopLogger returns the shared no-op logger instance.
func GetNoopLogger() Logger {
	return noop
}

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps a *slog.Logger. A nil argument wraps slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) WithField(key string, value any) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}
