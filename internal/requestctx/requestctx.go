// Package requestctx carries the request id from the HTTP layer down to the
// audit trail, so every response envelope and audit row can echo the same
// correlation id.
package requestctx

import "context"

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the id set by the HTTP middleware, or "" outside a
// request (workers, seeds, tests).
func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}
