package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Youmanvi/venuereserve/internal/infrastructure/config"
)

const TraceIDKey = "trace_id"

type traceIDContextKey struct{}

type Logger struct {
	*zerolog.Logger
}

// NewLogger creates a new structured logger based on configuration
func NewLogger(cfg *config.ObservabilityConfig) *Logger {
	return NewLoggerWithWriter(cfg, os.Stderr)
}

// NewLoggerWithWriter is NewLogger writing to out. stdout is reserved for
// the daemon's responses, so logs default to stderr.
func NewLoggerWithWriter(cfg *config.ObservabilityConfig, out io.Writer) *Logger {
	logLevel := parseLogLevel(cfg.LogLevel)

	if cfg.LogFormat == "text" {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).
		Level(logLevel).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: &logger}
}

// NewNopLogger discards everything
func NewNopLogger() *Logger {
	logger := zerolog.Nop()
	return &Logger{Logger: &logger}
}

// WithTraceID returns a new logger with trace ID attached
func (l *Logger) WithTraceID(traceID string) *Logger {
	logger := l.With().Str(TraceIDKey, traceID).Logger()
	return &Logger{Logger: &logger}
}

// WithOperation returns a new logger with the engine operation name
func (l *Logger) WithOperation(operation string) *Logger {
	logger := l.With().Str("operation", operation).Logger()
	return &Logger{Logger: &logger}
}

// WithError returns a new logger with error attached
func (l *Logger) WithError(err error) *Logger {
	logger := l.With().Err(err).Logger()
	return &Logger{Logger: &logger}
}

// Info logs an info level message
func (l *Logger) Info(msg string) {
	l.Logger.Info().Msg(msg)
}

// Error logs an error level message
func (l *Logger) Error(msg string, err error) {
	l.Logger.Error().Err(err).Msg(msg)
}

// Debug logs a debug level message
func (l *Logger) Debug(msg string) {
	l.Logger.Debug().Msg(msg)
}

// ContextWithTraceID stores a caller supplied trace id for the logging middleware
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDContextKey{}, traceID)
}

// TraceIDFromContext returns the trace id stored by ContextWithTraceID
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDContextKey{}).(string); ok {
		return traceID
	}
	return ""
}

// parseLogLevel converts string to zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
