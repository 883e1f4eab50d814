// Package vault provides the symmetric encryption, hashing and secure token
// primitives shared by the session, refresh and tenant packages.
//
// # Token layout
//
// [Vault.Encrypt] produces base64url (no padding) of
//
//	salt(32) || nonce(16) || tag(16) || ciphertext
//
// The per-call key is PBKDF2-SHA512 over SHA-256(secret) with the fresh salt.
//
// # What this package must NOT do
//
//   - Keep any mutable state after construction.
//   - Return partial plaintext when authentication fails.
package vault
