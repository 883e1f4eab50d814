// Package refresh issues, validates and revokes the long-lived opaque refresh
// tokens carried in the refresh_token cookie.
//
// # Storage model
//
// A token is 32 random bytes, hex encoded, handed to the client exactly once.
// The [Repository] indexes records by the SHA-512 hex digest of the token and
// keeps an encrypted copy of the token for audit only; the plaintext is never
// persisted and the encrypted copy is never read back on the validation path.
//
// Two repositories ship with the package: refresh/postgres (SQL via squirrel)
// and refresh/redis (hash records with a per-principal index).
//
// # Architecture boundaries
//
// This package owns the [Store] policy (expiry, revocation, lastUsedAt) and the
// [Record] model. Rotation is composed by the Engine: validate, revoke, issue.
//
// # What this package must NOT do
//
//   - Return repository errors from [Store.Validate]; they degrade to
//     [ErrTokenInvalid] and are logged.
//   - Store plaintext tokens.
//   - Import goGuard (no upward imports).
package refresh
