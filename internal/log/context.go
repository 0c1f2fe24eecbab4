package log

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey struct{}

var loggerKey contextKey

// WithContext stores a logger in the context for downstream retrieval.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or the base logger if none is present.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
			return l
		}
	}
	return Base()
}

// WithCorrelationID returns a context whose logger carries the given correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	l := FromContext(ctx).With().Str(FieldCorrelationID, id).Logger()
	return WithContext(ctx, l)
}
