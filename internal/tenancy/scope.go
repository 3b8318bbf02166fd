// Package tenancy carries the caller's tenant identity through the core.
//
// Every service and repository operation takes a Scope value explicitly;
// data access without one does not compile. The HTTP layer is the only
// place a Scope is minted, after the bearer token has been verified.
package tenancy

import "context"

// Scope identifies the tenant (user) a core operation acts on behalf of.
type Scope struct {
	UserID int64
}

// Valid reports whether the scope references a concrete tenant.
func (s Scope) Valid() bool {
	return s.UserID > 0
}

type scopeContextKey struct{}

// WithScope stores the scope in context for the request middleware chain.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// FromContext extracts the scope placed by the auth middleware.
func FromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	return scope, ok && scope.Valid()
}
