// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID keys the per-action correlation ID in a context.
const CorrelationID LogContextKey = "correlation_id"

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// RemoteLogger provides structured logging for remote data-service calls,
// one instance per table.
type RemoteLogger struct {
	table  string
	logger *Logger
}

// NewRemoteLogger creates a new RemoteLogger for the given table.
func NewRemoteLogger(table string) *RemoteLogger {
	return &RemoteLogger{table: table, logger: GlobalLogger}
}

// LogCall logs a completed remote operation against the table.
func (l *RemoteLogger) LogCall(ctx context.Context, operation string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "remote call", attrs...)
}

// LogError logs a failed remote operation against the table.
func (l *RemoteLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "remote call failed",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogHandlerStart logs the start of a mutation handler's in-flight phase.
func LogHandlerStart(ctx context.Context, handler string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("handler", handler),
		slog.String("phase", "in_flight"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "mutation handler started", attrs...)
}

// LogHandlerEnd logs a mutation handler returning to idle.
func LogHandlerEnd(ctx context.Context, handler string, err error) {
	if err != nil {
		GlobalLogger.ErrorContext(ctx, "mutation handler failed",
			slog.String("handler", handler),
			slog.String("phase", "idle"),
			slog.String("error", err.Error()),
			slog.String("correlation_id", ExtractCorrelationID(ctx)),
		)
		return
	}
	GlobalLogger.InfoContext(ctx, "mutation handler completed",
		slog.String("handler", handler),
		slog.String("phase", "idle"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
