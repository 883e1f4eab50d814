package middleware

import (
	"net/http"
	"strconv"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/ratelimit"
)

// ApplyRateLimit charges one request for r against tier, writes the
// X-RateLimit-* headers and reports whether the request may proceed. A
// denied request gets Retry-After and the 429 envelope.
func ApplyRateLimit(engine *goGuard.Engine, w http.ResponseWriter, r *http.Request, tier ratelimit.Tier) bool {
	d := engine.CheckRateLimit(r.Context(), ratelimit.ClientIdentity(r), tier)
	if d.Limit > 0 {
		ratelimit.WriteHeaders(w, d)
	}
	if d.Allowed {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(ratelimit.RetryAfter(d, time.Now())))
	WriteError(w, r, engine, d.Err())
	return false
}

// RateLimit limits requests per client identity in tier.
func RateLimit(engine *goGuard.Engine, tier ratelimit.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ApplyRateLimit(engine, w, r, tier) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
