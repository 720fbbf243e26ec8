package logging

import (
	"context"

	"go.uber.org/zap"
)

type contextKey int

const runIDKey contextKey = iota

// WithRunID stamps a batch run identifier on the context so every log
// entry from that run carries it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the run identifier from the context, if any.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok
}

// ContextFields extracts log fields carried by the context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	if id, ok := RunID(ctx); ok {
		return []zap.Field{zap.String("run_id", id)}
	}
	return nil
}
