package server

import "context"

type (
	serverContextKey struct{}
	connContextKey   struct{}
)

// FromContext returns the server a request is being handled by.
func FromContext(ctx context.Context) (*Server, bool) {
	s, ok := ctx.Value(serverContextKey{}).(*Server)
	return s, ok
}

// ReportError emits err on the server handling ctx's request.
// It reports whether any error listener received it.
func ReportError(ctx context.Context, err error) bool {
	s, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return s.EmitError(err)
}
