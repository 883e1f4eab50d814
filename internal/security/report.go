package security

import "time"

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

type Report struct {
	ProductionMode       bool
	SigningAlgorithm     string
	SessionTTL           time.Duration
	RefreshTTL           time.Duration
	Argon2               PasswordReport
	KDFIterations        int
	ActiveCheckEnabled   bool
	HashUpgradeEnabled   bool
	RefreshSweepEnabled  bool
	RateLimitingActive   bool
	AuthTierLimit        int
	FirewallActive       bool
	FirewallExemptPaths  int
	OriginCheckActive    bool
	AllowedOrigins       int
	AuditActive          bool
	AuditLossless        bool
	MetricsActive        bool
	TenantCacheActive    bool
	LintFindings         []string
	HighSeverityFindings int
}

type ReportInput struct {
	ProductionMode      bool
	SigningAlgorithm    string
	SessionTTL          time.Duration
	RefreshTTL          time.Duration
	Password            PasswordReport
	KDFIterations       int
	CheckActive         bool
	UpgradeOnLogin      bool
	SweepInterval       time.Duration
	RateLimitEnabled    bool
	AuthTierLimit       int
	WAFEnabled          bool
	ExemptPaths         int
	AllowedOrigins      int
	AuditEnabled        bool
	AuditDropIfFull     bool
	MetricsEnabled      bool
	TenantCacheTTL      time.Duration
	LintCodes           []string
	HighSeverityFinding int
}

// BuildReport derives the posture summary from raw configuration facts.
func BuildReport(input ReportInput) Report {
	return Report{
		ProductionMode:       input.ProductionMode,
		SigningAlgorithm:     input.SigningAlgorithm,
		SessionTTL:           input.SessionTTL,
		RefreshTTL:           input.RefreshTTL,
		Argon2:               input.Password,
		KDFIterations:        input.KDFIterations,
		ActiveCheckEnabled:   input.CheckActive,
		HashUpgradeEnabled:   input.UpgradeOnLogin,
		RefreshSweepEnabled:  input.SweepInterval > 0,
		RateLimitingActive:   input.RateLimitEnabled,
		AuthTierLimit:        input.AuthTierLimit,
		FirewallActive:       input.WAFEnabled,
		FirewallExemptPaths:  input.ExemptPaths,
		OriginCheckActive:    input.ProductionMode,
		AllowedOrigins:       input.AllowedOrigins,
		AuditActive:          input.AuditEnabled,
		AuditLossless:        input.AuditEnabled && !input.AuditDropIfFull,
		MetricsActive:        input.MetricsEnabled,
		TenantCacheActive:    input.TenantCacheTTL > 0,
		LintFindings:         append([]string(nil), input.LintCodes...),
		HighSeverityFindings: input.HighSeverityFinding,
	}
}
