package internaldefs

import (
	goGuard "github.com/MrEthical07/goGuard"
)

// CounterDef defines a public type used by goGuard APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goGuard APIs.
type HistogramDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: goGuard.MetricLoginSuccess, Name: "goguard_login_success_total", Help: "Successful logins."},
	{ID: goGuard.MetricLoginFailure, Name: "goguard_login_failure_total", Help: "Failed logins."},
	{ID: goGuard.MetricRefreshSuccess, Name: "goguard_refresh_success_total", Help: "Successful refresh token rotations."},
	{ID: goGuard.MetricRefreshFailure, Name: "goguard_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: goGuard.MetricLogout, Name: "goguard_logout_total", Help: "Single-session logouts."},
	{ID: goGuard.MetricLogoutAll, Name: "goguard_logout_all_total", Help: "Logout-all operations."},
	{ID: goGuard.MetricSessionCreated, Name: "goguard_session_created_total", Help: "Issued session tokens."},
	{ID: goGuard.MetricAuthenticateFailure, Name: "goguard_authenticate_failure_total", Help: "Rejected session tokens."},
	{ID: goGuard.MetricTenantResolved, Name: "goguard_tenant_resolved_total", Help: "Resolved tenant scopes."},
	{ID: goGuard.MetricTenantDenied, Name: "goguard_tenant_denied_total", Help: "Tenant resolutions that failed."},
	{ID: goGuard.MetricIsolationViolation, Name: "goguard_tenant_isolation_violation_total", Help: "Cross-tenant access attempts."},
	{ID: goGuard.MetricTenantContextRequired, Name: "goguard_tenant_context_required_total", Help: "Tenant-scoped queries run without a scope."},
	{ID: goGuard.MetricWAFBlocked, Name: "goguard_waf_blocked_total", Help: "Requests blocked by the firewall."},
	{ID: goGuard.MetricWAFAlert, Name: "goguard_waf_alert_total", Help: "Firewall blocks at high or critical severity."},
	{ID: goGuard.MetricRateLimitHit, Name: "goguard_rate_limit_hit_total", Help: "Requests denied by the rate limiter."},
	{ID: goGuard.MetricRateLimitDegraded, Name: "goguard_rate_limit_degraded_total", Help: "Rate limit checks that fell back to the in-memory limiter."},
	{ID: goGuard.MetricRefreshSwept, Name: "goguard_refresh_swept_total", Help: "Expired refresh tokens removed by the sweeper."},
	{ID: goGuard.MetricValidationFailed, Name: "goguard_validation_failed_total", Help: "Request bodies that failed validation."},
	{ID: goGuard.MetricOriginRejected, Name: "goguard_origin_rejected_total", Help: "State-changing requests with a foreign origin."},
	{ID: goGuard.MetricPanicRecovered, Name: "goguard_panic_recovered_total", Help: "Recovered handler panics."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGuard.MetricAuthenticateLatency, Name: "goguard_authenticate_latency_seconds", Help: "Session token verification latency."},
}

// HistogramBounds holds the upper bound of each bucket, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the metric exporters.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// Missing buckets are zero; extra buckets are dropped.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
