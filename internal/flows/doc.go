// Package flows contains pure-function orchestrators for the Engine's session operations.
//
// Each flow function (RunLogin, RunAuthenticate, RunRefresh, RunLogout) accepts a
// typed dependency struct and returns a result carrying a FailureKind, so the
// Engine maps failures to public errors, metrics and audit events in one place.
// Flows are exhaustively testable with stub dependencies.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session codec, refresh store, password
// hasher and caller provider. They do NOT own any of these resources; ownership
// stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGuard (to avoid import cycles).
//   - Emit metrics or audit events; the Engine does that from the returned result.
package flows
