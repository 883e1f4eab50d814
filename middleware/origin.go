package middleware

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
)

// ValidateOrigin rejects cross-site state-changing requests in production.
func ValidateOrigin(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := engine.CheckOrigin(r); err != nil {
				WriteError(w, r, engine, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
