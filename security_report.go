package goGuard

import (
	"time"

	"github.com/MrEthical07/goGuard/internal/security"
	"github.com/MrEthical07/goGuard/ratelimit"
)

// SecurityReport defines a public type used by goGuard APIs.
//
// SecurityReport instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityReport struct {
	ProductionMode       bool                 `json:"production_mode"`
	SigningAlgorithm     string               `json:"signing_algorithm"`
	SessionTTL           time.Duration        `json:"session_ttl"`
	RefreshTTL           time.Duration        `json:"refresh_ttl"`
	Argon2               PasswordConfigReport `json:"argon2"`
	KDFIterations        int                  `json:"kdf_iterations"`
	ActiveCheckEnabled   bool                 `json:"active_check_enabled"`
	HashUpgradeEnabled   bool                 `json:"hash_upgrade_enabled"`
	RefreshSweepEnabled  bool                 `json:"refresh_sweep_enabled"`
	RateLimitingActive   bool                 `json:"rate_limiting_active"`
	AuthTierLimit        int                  `json:"auth_tier_limit"`
	FirewallActive       bool                 `json:"firewall_active"`
	FirewallExemptPaths  int                  `json:"firewall_exempt_paths"`
	OriginCheckActive    bool                 `json:"origin_check_active"`
	AllowedOrigins       int                  `json:"allowed_origins"`
	AuditActive          bool                 `json:"audit_active"`
	AuditLossless        bool                 `json:"audit_lossless"`
	MetricsActive        bool                 `json:"metrics_active"`
	TenantCacheActive    bool                 `json:"tenant_cache_active"`
	LintFindings         []string             `json:"lint_findings"`
	HighSeverityFindings int                  `json:"high_severity_findings"`
}

// PasswordConfigReport defines a public type used by goGuard APIs.
type PasswordConfigReport struct {
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
	SaltLength  uint32 `json:"salt_length"`
	KeyLength   uint32 `json:"key_length"`
	MinLength   int    `json:"min_length"`
}

// SecurityReport describes the securityreport operation and its observable behavior.
//
// SecurityReport summarizes the effective security posture together with the
// codes of every Lint finding. It never includes secrets.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	cfg := e.config
	lint := cfg.Lint()
	authTier := cfg.limits()[ratelimit.TierAuth]

	r := security.BuildReport(security.ReportInput{
		ProductionMode:   cfg.Production(),
		SigningAlgorithm: "HS512",
		SessionTTL:       cfg.Session.TTL,
		RefreshTTL:       cfg.Refresh.TTL,
		Password: security.PasswordReport{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
			MinLength:   cfg.Password.MinLength,
		},
		KDFIterations:       cfg.Crypto.KDFIterations,
		CheckActive:         cfg.Session.CheckActive,
		UpgradeOnLogin:      e.passwords != nil,
		SweepInterval:       cfg.Refresh.SweepInterval,
		RateLimitEnabled:    e.limiter != nil,
		AuthTierLimit:       authTier.Requests,
		WAFEnabled:          e.firewall != nil,
		ExemptPaths:         len(cfg.WAF.ExemptPaths),
		AllowedOrigins:      len(cfg.Pipeline.AllowedOrigins),
		AuditEnabled:        cfg.Audit.Enabled,
		AuditDropIfFull:     cfg.Audit.DropIfFull,
		MetricsEnabled:      cfg.Metrics.Enabled,
		TenantCacheTTL:      cfg.Tenant.CacheTTL,
		LintCodes:           lint.Codes(),
		HighSeverityFinding: len(lint.BySeverity(LintHigh)),
	})

	return SecurityReport{
		ProductionMode:   r.ProductionMode,
		SigningAlgorithm: r.SigningAlgorithm,
		SessionTTL:       r.SessionTTL,
		RefreshTTL:       r.RefreshTTL,
		Argon2: PasswordConfigReport{
			Memory:      r.Argon2.Memory,
			Time:        r.Argon2.Time,
			Parallelism: r.Argon2.Parallelism,
			SaltLength:  r.Argon2.SaltLength,
			KeyLength:   r.Argon2.KeyLength,
			MinLength:   r.Argon2.MinLength,
		},
		KDFIterations:        r.KDFIterations,
		ActiveCheckEnabled:   r.ActiveCheckEnabled,
		HashUpgradeEnabled:   r.HashUpgradeEnabled,
		RefreshSweepEnabled:  r.RefreshSweepEnabled,
		RateLimitingActive:   r.RateLimitingActive,
		AuthTierLimit:        r.AuthTierLimit,
		FirewallActive:       r.FirewallActive,
		FirewallExemptPaths:  r.FirewallExemptPaths,
		OriginCheckActive:    r.OriginCheckActive,
		AllowedOrigins:       r.AllowedOrigins,
		AuditActive:          r.AuditActive,
		AuditLossless:        r.AuditLossless,
		MetricsActive:        r.MetricsActive,
		TenantCacheActive:    r.TenantCacheActive,
		LintFindings:         r.LintFindings,
		HighSeverityFindings: r.HighSeverityFindings,
	}
}
