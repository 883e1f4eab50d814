// Package server is the goguard HTTP API: the chi router, the auth and
// security endpoints, health and metrics, and graceful shutdown.
//
// Routes:
//
//	GET  /api/health
//	GET  /metrics
//	POST /api/auth/login
//	POST /api/auth/refresh
//	POST /api/auth/logout
//	POST /api/auth/logout-all
//	GET  /api/auth/verify
//	GET  /api/auth/session
//	POST /api/super-admin/login
//	GET  /api/super-admin/security
//	GET  /api/admin/security
//	POST /api/security/report
package server
