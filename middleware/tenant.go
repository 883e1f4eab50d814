package middleware

import (
	"context"
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/tenant"
)

// ResolveRequestTenant resolves the tenant scope for the authenticated caller
// in r and returns a context carrying it.
func ResolveRequestTenant(engine *goGuard.Engine, r *http.Request) (context.Context, tenant.Scope, error) {
	caller, ok := goGuard.CallerFromContext(r.Context())
	if !ok {
		return nil, tenant.Scope{}, tenant.ErrInvalidCallerType
	}
	scope, err := engine.ResolveTenant(r.Context(), caller, tenant.HintFromRequest(r))
	if err != nil {
		return nil, tenant.Scope{}, err
	}

	ctx := tenant.WithScope(r.Context(), scope)
	if scope.Tenanted() {
		log := logging.FromContext(ctx, engine.Logger()).With("tenant_id", scope.TenantID)
		ctx = logging.WithContext(ctx, log)
	}
	return ctx, scope, nil
}

// Tenant puts the resolved tenant scope in the request context. It must run
// after Authenticate.
func Tenant(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _, err := ResolveRequestTenant(engine, r)
			if err != nil {
				WriteError(w, r, engine, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
