// Package session signs and verifies the short-lived session tokens carried in
// the admin_session cookie.
//
// # Token format
//
// Tokens are three base64url segments, header.claims.signature, signed with
// HMAC-SHA-512. The header is always {"alg":"HS512","typ":"JWT"} and every
// token carries iat, exp and a random jti.
//
// # Architecture boundaries
//
// This package owns [Claims] and the [Codec]. It does NOT persist anything,
// look up callers, or decide tenant scope; those responsibilities belong to
// the Engine and the tenant package.
//
// # What this package must NOT do
//
//   - Import goGuard, refresh or tenant (no upward imports).
//   - Accept tokens signed with any algorithm other than HS512.
//   - Compare signatures in variable time.
package session
