// Package otel publishes goGuard engine metrics as OpenTelemetry observable
// instruments.
//
// [NewExporter] creates one Int64ObservableCounter per engine counter and one
// Int64ObservableGauge per histogram, with a cumulative data point for each
// bucket labelled by its "le" bound. A single callback reads the engine
// snapshot on every collection. Callers own the MeterProvider.
package otel
