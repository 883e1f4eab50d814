package goGuard

import (
	"context"

	"github.com/MrEthical07/goGuard/tenant"
)

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type requestIDContextKey struct{}
type callerContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Audit events and
// incident reports read it back.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithRequestID attaches the request correlation id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// WithCaller attaches the authenticated caller to ctx.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, c)
}

// CallerFromContext returns the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(callerContextKey{}).(*Caller)
	return c, ok && c != nil
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ua, _ := ctx.Value(userAgentContextKey{}).(string)
	return ua
}

// tenantIDFromContext prefers the resolved scope and falls back to the
// caller's own tenant.
func tenantIDFromContext(ctx context.Context) string {
	if s, ok := tenant.ScopeFrom(ctx); ok && s.Tenanted() {
		return s.TenantID
	}
	if c, ok := CallerFromContext(ctx); ok {
		return c.TenantID
	}
	return ""
}
