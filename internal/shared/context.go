package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the authenticated session in context. The authz
// middleware reads it back to identify the requesting user.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context, nil when the request
// is unauthenticated.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
