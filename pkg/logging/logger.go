package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	runIDKey     contextKey = "runID"
)

// LevelTrace is below debug; used for per-record ingestion detail
const LevelTrace = slog.LevelDebug - 4

var logger atomic.Pointer[slog.Logger]

func init() {
	// Initialize with compact handler for readable console output
	// Can be replaced with JSON handler for production
	Configure(os.Stderr, slog.LevelInfo, false)
}

// Configure replaces the process logger.
// Component loggers created with New pick up the change on their next call.
func Configure(w io.Writer, level slog.Level, jsonOutput bool) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewCompactHandler(w, opts)
	}
	logger.Store(slog.New(handler))
}

// SetLevel changes the logging level, keeping compact console output
func SetLevel(level slog.Level) {
	Configure(os.Stderr, level, false)
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	Configure(os.Stderr, level, true)
}

// ParseLevel maps a verbosity name or a -v count to a level.
// A non-empty name wins over the count.
func ParseLevel(name string, verboseCount int) slog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	switch {
	case verboseCount >= 2:
		return LevelTrace
	case verboseCount == 1:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Logger is a component-scoped logger
type Logger struct {
	component string
}

// New returns a logger that tags every record with the component name
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) with() *slog.Logger {
	return logger.Load().With("component", l.component)
}

func (l *Logger) Trace(msg string, args ...any) {
	l.with().Log(context.Background(), LevelTrace, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.with().Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.with().Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.with().Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.with().Error(msg, args...) }

// InfoContext logs at INFO level with the request or run ID from ctx
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.with().InfoContext(ctx, msg, withIDs(ctx, args)...)
}

// WarnContext logs at WARN level with the request or run ID from ctx
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.with().WarnContext(ctx, msg, withIDs(ctx, args)...)
}

// ErrorContext logs at ERROR level with the request or run ID from ctx
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.with().ErrorContext(ctx, msg, withIDs(ctx, args)...)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRunID tags the context with an ingestion run ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the ingestion run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}

// withIDs prepends the request and run IDs to log attributes if present
func withIDs(ctx context.Context, args []any) []any {
	if runID := GetRunID(ctx); runID != "" {
		args = append([]any{"runID", runID}, args...)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		args = append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.Load().InfoContext(ctx, msg, withIDs(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.Load().ErrorContext(ctx, msg, withIDs(ctx, args)...)
}

// Fatal logs at ERROR level and exits (unrecoverable errors)
func Fatal(msg string, args ...any) {
	logger.Load().Error(msg, args...)
	os.Exit(1)
}
