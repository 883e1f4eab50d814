// Package internal contains helpers that are private to goGuard.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for login, refresh, logout and authenticate
//   - ids: request, incident, record and event identifiers
//   - metrics: lock-free counters and latency histograms
//   - security: security posture report assembly
//
// The service binary additionally uses:
//
//   - accounts: CallerProvider over the super_admins and tenant_users tables
//   - config: GOGUARD_* environment loading
//   - db: pgx pool with database/sql, sqlx and squirrel views
//   - monitoring: Prometheus HTTP metrics
//   - server: chi router and HTTP server lifecycle
//   - tracing: OTLP tracer provider and otelhttp wrapper
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGuard API.
//   - Be imported by any package outside the goGuard module.
package internal
