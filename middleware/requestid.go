package middleware

import (
	"net/http"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/internal/ids"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/ratelimit"
)

// HeaderRequestID carries the request correlation id in both directions.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLength = 128

// RequestID assigns a request id, echoes it in the response and attaches
// the id, client ip and user agent to the context. An inbound id is kept when
// it is short and printable.
func RequestID(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, assignRequestID(engine, w, r))
		})
	}
}

// EnsureRequestID is RequestID for a single request: it returns r unchanged
// when an id is already in the context.
func EnsureRequestID(engine *goGuard.Engine, w http.ResponseWriter, r *http.Request) *http.Request {
	if goGuard.RequestIDFromContext(r.Context()) != "" {
		return r
	}
	return assignRequestID(engine, w, r)
}

func assignRequestID(engine *goGuard.Engine, w http.ResponseWriter, r *http.Request) *http.Request {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if !validRequestID(id) {
		id = ids.RequestID()
	}
	w.Header().Set(HeaderRequestID, id)

	ctx := goGuard.WithRequestID(r.Context(), id)
	ctx = goGuard.WithClientIP(ctx, ratelimit.ClientIdentity(r))
	ctx = goGuard.WithUserAgent(ctx, r.UserAgent())
	ctx = logging.WithContext(ctx, engine.Logger().With("request_id", id))
	return r.WithContext(ctx)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
