// Package prometheus exposes goGuard engine metrics through client_golang.
//
// [Collector] implements prometheus.Collector over an engine snapshot. Counter
// names are prefixed goguard_ and end in _total; the single histogram is
// goguard_authenticate_latency_seconds.
//
// The collector is not registered globally. Register it in a caller-owned
// registry, or use [Handler] which does so in a private one.
package prometheus
