// Package tenant enforces per-tenant data isolation.
//
// # Components
//
//   - [Guard] knows which [ResourceType] values are tenant isolated and
//     applies the tenant filter or stamp to predicates and payloads.
//   - [ScopedStatements] is the data-access decorator: every squirrel builder
//     it hands out for an isolated resource already carries the filter of the
//     [Scope] found in the request context.
//   - [Resolver] decides, per request, which tenant a caller may act as.
//
// # Scope propagation
//
// The resolved [Scope] travels in context.Context ([WithScope], [ScopeFrom]).
// There is no package-level "current tenant"; concurrent requests never share
// scope.
//
// # What this package must NOT do
//
//   - Let a tenant user's scope resolve to any tenant other than their own.
//   - Skip the filter for isolated resources unless the scope is global.
//   - Import goGuard (no upward imports).
package tenant
