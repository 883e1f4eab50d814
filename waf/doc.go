// Package waf is a signature based request firewall.
//
// [Firewall.Analyze] inspects a request once, before business logic, and
// returns a [Verdict]. It scans header values (minus a transport allow-list),
// query values, the parsed body and the unescaped URL against four signature
// families in a fixed order: XSS, SQL injection, path traversal and command
// injection. The first match wins.
//
// Signatures are policy, not a parser. They are a second net behind
// parameterized queries and output encoding, never a substitute.
//
// The verdict's Reason is internal. Callers must not echo it to clients.
package waf
