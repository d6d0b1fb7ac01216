package logger

import (
	"context"
	"log/slog"
)

type contextKey string

// Business context keys.
const (
	UserIDKey    contextKey = "fap.user.id"
	RequestIDKey contextKey = "fap.request.id"
	OperationKey contextKey = "fap.operation"
)

var businessKeys = []contextKey{UserIDKey, RequestIDKey, OperationKey}

// GlobalContext is set by Init.
var GlobalContext *ContextLogger

// ContextLogger derives loggers enriched with business context.
type ContextLogger struct {
	logger *slog.Logger
}

func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext returns a logger carrying the business keys found on ctx.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	attrs := businessAttrs(ctx)
	if len(attrs) == 0 {
		return cl.logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return cl.logger.With(args...)
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, OperationKey, op)
}

// RequestIDFrom returns the request id stored on ctx.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func businessAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	for _, key := range businessKeys {
		switch v := ctx.Value(key).(type) {
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(string(key), v))
			}
		case int64:
			attrs = append(attrs, slog.Int64(string(key), v))
		}
	}
	return attrs
}
