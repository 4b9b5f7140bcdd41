// Package trace carries a job ID through a report run so every log line of
// one run can be correlated.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// JobIDKey is the context key for the job ID
	JobIDKey ContextKey = "job_id"
)

// GenerateJobID creates a unique job ID
func GenerateJobID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("job_%d", time.Now().UnixNano())
	}
	return "job_" + hex.EncodeToString(bytes)
}

// WithJobID returns a context carrying id. An empty id leaves ctx unchanged.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, JobIDKey, id)
}

// JobID extracts the job ID from context
func JobID(ctx context.Context) string {
	if id, ok := ctx.Value(JobIDKey).(string); ok {
		return id
	}
	return ""
}

// Logger returns base annotated with the job ID of ctx, if any.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := JobID(ctx); id != "" {
		return base.With(string(JobIDKey), id)
	}
	return base
}
