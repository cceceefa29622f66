package authz

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context. The
// middleware sets it after an allow so handlers can identify the actor.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
