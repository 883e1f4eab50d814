// Package permission provides a 64-bit permission mask, a name-to-bit registry,
// and the role table used by goGuard privilege checks.
//
// # Roles
//
// The platform knows five roles. SUPER_ADMIN holds the reserved root bit and
// passes every check. OWNER, ADMIN, EDITOR and VIEWER are tenant roles with
// decreasing permission sets, see [DefaultRoles].
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. The Engine builds
// one [RoleManager] at Build time and freezes it; request-time checks only read.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goGuard, session, or tenant.
//   - Grow masks past 64 bits.
package permission
