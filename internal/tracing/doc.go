// Package tracing configures OpenTelemetry tracing for the goguard service:
// an OTLP/HTTP exporter, the global provider used by the Redis and Postgres
// stores, and the otelhttp server middleware.
package tracing
