package tenant

import "context"

// Scope is the tenant a request acts as. Global is only ever produced for
// super admins that did not target a tenant.
type Scope struct {
	TenantID   string
	TenantSlug string
	Global     bool
}

// Tenanted reports whether s names a concrete tenant.
func (s Scope) Tenanted() bool {
	return !s.Global && s.TenantID != ""
}

type scopeContextKey struct{}

// WithScope returns a copy of ctx carrying s.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFrom returns the scope stored in ctx.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	s, ok := ctx.Value(scopeContextKey{}).(Scope)
	return s, ok
}
