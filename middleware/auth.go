package middleware

import (
	"context"
	"net/http"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/session"
)

// SessionToken returns the session token from the named cookie, falling back
// to an Authorization Bearer header.
func SessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return ""
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// AuthenticateRequest verifies the request's session token and returns a
// context carrying the caller and a logger tagged with user_id. tenant_id is
// added once the tenant scope is resolved.
func AuthenticateRequest(engine *goGuard.Engine, r *http.Request, cookieName string) (context.Context, *goGuard.Caller, error) {
	token := SessionToken(r, cookieName)
	if token == "" {
		return nil, nil, session.ErrMissingToken
	}
	caller, err := engine.Authenticate(r.Context(), token)
	if err != nil {
		return nil, nil, err
	}

	ctx := goGuard.WithCaller(r.Context(), caller)
	log := logging.FromContext(ctx, engine.Logger()).With("user_id", caller.ID)
	return logging.WithContext(ctx, log), caller, nil
}

// Authenticate rejects requests without a valid session with 401.
func Authenticate(engine *goGuard.Engine) func(http.Handler) http.Handler {
	cookie := engine.Config().Session.CookieName
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _, err := AuthenticateRequest(engine, r, cookie)
			if err != nil {
				WriteError(w, r, engine, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin rejects authenticated callers that are not platform
// operators. It must run after Authenticate.
func RequireSuperAdmin(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := goGuard.CallerFromContext(r.Context())
			if err := engine.RequireSuperAdmin(caller); err != nil {
				WriteError(w, r, engine, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission rejects callers whose role lacks perm. It must run after
// Authenticate.
func RequirePermission(engine *goGuard.Engine, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := goGuard.CallerFromContext(r.Context())
			if err := engine.Authorize(caller, perm); err != nil {
				WriteError(w, r, engine, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
