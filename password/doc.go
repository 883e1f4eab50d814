// Package password hashes and verifies caller passwords with Argon2id.
//
// # Output format
//
// Hashes are encoded as PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes produced with weaker parameters so the
// Engine can upgrade them after a successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Credential lookup belongs to the
// CallerProvider configured on the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goGuard package.
//   - Log plaintext passwords.
package password
