// Package goGuard is the authentication, session and request-security core of a
// multi-tenant content platform.
//
// An [Engine] is assembled once through [Builder.Build]. It signs and verifies
// HS512 session tokens, rotates opaque refresh tokens, resolves the tenant a
// request acts as, runs the request firewall and the tiered rate limiter, and
// emits audit events and metrics for each of those decisions. Engine methods are
// safe to call from multiple goroutines after Build.
//
// # Architecture boundaries
//
// goGuard is the public surface. It exposes [Engine], [Builder], [Config] and
// value types such as [Caller] and [LoginResult]. Flow orchestration, audit
// dispatch, metric storage and id generation live under internal/. HTTP adapters
// live in the middleware and pipeline packages, which import goGuard and never
// the other way around.
//
// # What this package must NOT do
//
//   - Expose Redis clients, repositories or key material in its public API.
//   - Touch the network outside Engine methods (Build only wires dependencies).
//   - Import a sub-package that re-imports goGuard.
//
// # Performance contract
//
// Authenticate is the hot path. It verifies the session signature locally and
// only reaches the caller store when Session.CheckActive is set. Login and
// Refresh are allowed one store round-trip per dependency.
package goGuard
