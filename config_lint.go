package goGuard

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/ratelimit"
)

// LintSeverity grades a configuration warning.
type LintSeverity int

const (
	// LintInfo is informational and expected in development.
	LintInfo LintSeverity = iota
	// LintWarn is a setting worth reviewing before production.
	LintWarn
	// LintHigh weakens a security guarantee.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one finding of Config.Lint.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds warnings at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that are valid but unsafe or surprising. It never
// fails; call Validate for hard errors.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if !c.Production() {
		add("development_mode", LintInfo, "cookies are not Secure, origins are not checked and errors carry details")
	}

	if c.Session.TTL > time.Hour {
		add("session_ttl_long", LintWarn, "session TTL %s exceeds 1h", c.Session.TTL)
	}
	if c.Refresh.TTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "refresh TTL %s exceeds 30 days", c.Refresh.TTL)
	}
	if c.Refresh.TTL > 0 && c.Session.TTL >= c.Refresh.TTL {
		add("session_outlives_refresh", LintHigh, "session TTL %s is not shorter than refresh TTL %s", c.Session.TTL, c.Refresh.TTL)
	}
	if c.Refresh.SweepInterval == 0 {
		add("refresh_sweep_disabled", LintInfo, "expired refresh tokens are only removed by `goguard sweep`")
	}

	if c.Crypto.KDFIterations > 0 && c.Crypto.KDFIterations < 100_000 {
		add("kdf_iterations_low", LintHigh, "PBKDF2 iterations %d below 100000", c.Crypto.KDFIterations)
	}
	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory %d KiB below 64 MiB", c.Password.Memory)
	}
	if c.Password.MinLength < 10 {
		add("password_min_length_low", LintWarn, "minimum password length %d below 10", c.Password.MinLength)
	}

	if !c.RateLimit.Enabled {
		add("rate_limits_disabled", LintHigh, "rate limiting is disabled for every tier")
	} else if auth, ok := c.limits()[ratelimit.TierAuth]; ok && auth.Requests > 20 {
		add("auth_tier_loose", LintWarn, "auth tier allows %d requests per %s", auth.Requests, auth.Window)
	}

	if !c.WAF.Enabled {
		add("waf_disabled", LintHigh, "request firewall is disabled")
	} else if len(c.WAF.ExemptPaths) > 10 {
		add("waf_exemptions_many", LintWarn, "%d paths bypass the firewall", len(c.WAF.ExemptPaths))
	}

	if c.Production() && len(c.Pipeline.AllowedOrigins) == 0 {
		add("origins_host_only", LintInfo, "only same-host origins are accepted for state-changing requests")
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintWarn, "security decisions are not audited")
	} else if c.Audit.DropIfFull && c.Production() {
		add("audit_drop_if_full", LintWarn, "audit events are dropped when the buffer is full")
	}
	if !c.Metrics.Enabled {
		add("metrics_disabled", LintInfo, "metrics collection is disabled")
	}

	return ws
}
