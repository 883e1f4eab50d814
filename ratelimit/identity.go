package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// UnknownIdentity is used when no client address can be determined.
const UnknownIdentity = "unknown"

// ClientIdentity returns the originating client IP: the first X-Forwarded-For
// entry, then X-Real-IP, then the connection address.
func ClientIdentity(r *http.Request) string {
	if r == nil {
		return UnknownIdentity
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return UnknownIdentity
}

// WriteHeaders sets the X-RateLimit-* headers for d.
func WriteHeaders(w http.ResponseWriter, d Decision) {
	if d.Limit <= 0 {
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// RetryAfter returns whole seconds until d resets, at least 1.
func RetryAfter(d Decision, now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
