package logger

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey struct{}

var loggerContextKey = contextKey{}

// WithLogger attaches a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts the logger stored by WithLogger, falling back to the
// global logger
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok && logger != nil {
		return logger
	}
	return Get()
}

// Ctx returns the underlying zerolog logger from the context
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := FromContext(ctx)
	return &logger.logger
}

// InfoCtx logs an info message using the context logger
func InfoCtx(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Info()
}

// ErrorCtx logs an error message using the context logger
func ErrorCtx(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Error()
}
