package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// JobKey names the batch job a log line belongs to
	JobKey ContextKey = "job"
	// CustomerKey is the customer being processed
	CustomerKey ContextKey = "customer_id"
	// RequestIDKey correlates calls coming from the order API
	RequestIDKey ContextKey = "request_id"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Init initializes the global slog logger writing to stdout
func Init(cfg *Config) {
	InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter initializes the global slog logger with an explicit sink
func InitWithWriter(cfg *Config, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithJob tags the context with a batch job name
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, JobKey, job)
}

// WithCustomer tags the context with the customer being processed
func WithCustomer(ctx context.Context, customerID uuid.UUID) context.Context {
	return context.WithValue(ctx, CustomerKey, customerID.String())
}

// WithRequestID tags the context with a caller request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithContext returns a logger with context values extracted
func WithContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if job, ok := ctx.Value(JobKey).(string); ok && job != "" {
		logger = logger.With("job", job)
	}
	if customerID, ok := ctx.Value(CustomerKey).(string); ok && customerID != "" {
		logger = logger.With("customer_id", customerID)
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger = logger.With("request_id", requestID)
	}

	return logger
}

// Info logs at info level with context
func Info(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Info(msg, args...)
}

// Debug logs at debug level with context
func Debug(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Debug(msg, args...)
}

// Warn logs at warn level with context
func Warn(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Warn(msg, args...)
}

// Error logs at error level with context
func Error(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
}
