package goGuard

import internalmetrics "github.com/MrEthical07/goGuard/internal/metrics"

// MetricID identifies one counter or histogram.
type MetricID = internalmetrics.MetricID

// Metrics is the engine's lock-free counter set.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	MetricLoginSuccess          = internalmetrics.MetricLoginSuccess
	MetricLoginFailure          = internalmetrics.MetricLoginFailure
	MetricRefreshSuccess        = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure        = internalmetrics.MetricRefreshFailure
	MetricLogout                = internalmetrics.MetricLogout
	MetricLogoutAll             = internalmetrics.MetricLogoutAll
	MetricSessionCreated        = internalmetrics.MetricSessionCreated
	MetricAuthenticateFailure   = internalmetrics.MetricAuthenticateFailure
	MetricTenantResolved        = internalmetrics.MetricTenantResolved
	MetricTenantDenied          = internalmetrics.MetricTenantDenied
	MetricIsolationViolation    = internalmetrics.MetricIsolationViolation
	MetricTenantContextRequired = internalmetrics.MetricTenantContextRequired
	MetricWAFBlocked            = internalmetrics.MetricWAFBlocked
	MetricWAFAlert              = internalmetrics.MetricWAFAlert
	MetricRateLimitHit          = internalmetrics.MetricRateLimitHit
	MetricRateLimitDegraded     = internalmetrics.MetricRateLimitDegraded
	MetricRefreshSwept          = internalmetrics.MetricRefreshSwept
	MetricValidationFailed      = internalmetrics.MetricValidationFailed
	MetricOriginRejected        = internalmetrics.MetricOriginRejected
	MetricPanicRecovered        = internalmetrics.MetricPanicRecovered
	MetricAuthenticateLatency   = internalmetrics.MetricAuthenticateLatency
	MetricIDCount               = internalmetrics.MetricIDCount
)

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
