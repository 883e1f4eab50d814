// Package middleware exposes net/http adapters over goGuard.Engine: request
// ids, security headers, rate limiting, session authentication, tenant
// resolution, firewall inspection, origin checks and panic recovery.
//
// Every rejection is written through [WriteError], which maps typed errors to
// statuses with [Classify] and renders the envelope
//
//	{"success":false,"error":"...","code":"...","details":{...}}
//
// # Composition
//
// The adapters compose with any router. The pipeline package runs the same
// stages in a fixed order per route; use these directly when mounting
// handlers outside a pipeline.
//
// # What this package must NOT do
//
//   - Parse or sign session tokens (delegates to Engine).
//   - Access Redis or the caller store directly.
//   - Leak firewall reasons or internal error messages in production responses.
package middleware
