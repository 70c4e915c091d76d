package libtracker

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// ContextKeyRequestID carries the request id assigned at an entry point.
var ContextKeyRequestID = contextKey("request_id")

// WithNewRequestID stamps a fresh request id into ctx. Call at the top of
// CLI commands and poller goroutines so tracked activity always carries an
// id.
func WithNewRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, uuid.NewString())
}
