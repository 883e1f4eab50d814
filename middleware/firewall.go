package middleware

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/ratelimit"
)

// InspectRequest runs the firewall over r and writes the 403 envelope on a
// block. The block reason is logged, never returned to the client.
func InspectRequest(engine *goGuard.Engine, w http.ResponseWriter, r *http.Request) bool {
	ins := engine.Inspect(r)
	if !ins.Blocked {
		return true
	}

	logging.FromContext(r.Context(), engine.Logger()).Warnw("request blocked by firewall",
		"incident_id", ins.IncidentID,
		"ip", ratelimit.ClientIdentity(r),
		"ua", r.UserAgent(),
		"path", r.URL.Path,
		"method", r.Method,
		"severity", string(ins.Severity),
		"family", string(ins.Family),
		"location", ins.Location,
		"reason", ins.Reason,
	)
	WriteHTTPError(w, Classify(ErrRequestBlocked))
	return false
}

// Firewall blocks requests carrying injection payloads.
func Firewall(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !InspectRequest(engine, w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
