// Package monitoring exposes Prometheus HTTP metrics for the goguard service.
package monitoring
