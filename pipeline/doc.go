// Package pipeline composes goGuard's request stages into a single
// http.Handler per route.
//
// A [Route] declares what an endpoint needs: accepted methods, rate limit
// tier, authentication, privilege, tenant scope, firewall inspection and a
// request body to validate. [Pipeline.Handle] runs only the stages the route
// asks for, in a fixed order, and the first rejection ends the request with
// the middleware error envelope.
//
// Handlers return errors instead of writing failures themselves; typed
// errors map to their status through middleware.Classify and anything else
// becomes a sanitized 500 reported to the engine's incident sink.
package pipeline
