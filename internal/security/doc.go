// Package security builds the engine's security posture report from
// configuration facts.
//
// # What this package must NOT do
//
//   - Read configuration or engine state directly; callers pass a ReportInput.
package security
