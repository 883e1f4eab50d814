// Package logging is the single structured logging capability used across
// goGuard. One [Logger] interface fronts two zap backends: a JSON encoder for
// deployed services and a console encoder for local development.
//
// Request-scoped loggers travel in context.Context via [WithContext] and
// [FromContext] so that request_id, user_id and tenant_id appear on every
// line written while serving a request.
//
// [Reporter] is the error-tracking and security-monitoring sink.
package logging
