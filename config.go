package goGuard

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/ratelimit"
	"github.com/MrEthical07/goGuard/vault"
	"github.com/MrEthical07/goGuard/waf"
)

// Environment selects production or development behavior.
type Environment string

const (
	// EnvDevelopment relaxes origin checks and exposes error details.
	EnvDevelopment Environment = "development"
	// EnvProduction enables secure cookies and sanitizes every error.
	EnvProduction Environment = "production"
)

// Config defines a public type used by goGuard APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Environment Environment
	// NodeID seeds the snowflake generator for audit event ids (0..1023).
	NodeID int64

	Crypto      CryptoConfig
	Session     SessionConfig
	Refresh     RefreshConfig
	Password    PasswordConfig
	Tenant      TenantConfig
	RateLimit   RateLimitConfig
	WAF         WAFConfig
	Pipeline    PipelineConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	Reporter    ReporterConfig
	Permissions PermissionConfig
}

/*
====================================
CRYPTO CONFIG
====================================
*/

// CryptoConfig defines a public type used by goGuard APIs.
//
// CryptoConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CryptoConfig struct {
	// Secret is the master secret for session signing and refresh token
	// encryption. It must be at least 64 characters.
	Secret        string
	KDFIterations int
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goGuard APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	TTL        time.Duration
	CookieName string
	// CheckActive reloads the caller on every Authenticate.
	CheckActive bool
}

// RefreshConfig defines a public type used by goGuard APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	TTL         time.Duration
	CookieName  string
	RedisPrefix string
	// SweepInterval enables the periodic sweeper in goguard serve.
	// Zero disables it.
	SweepInterval time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by goGuard APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory         uint32 // in KiB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

func (p PasswordConfig) params() password.Params {
	return password.Params{
		Memory:      p.Memory,
		Time:        p.Time,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
		MinLength:   p.MinLength,
	}
}

/*
====================================
REQUEST SECURITY CONFIG
====================================
*/

// TenantConfig defines a public type used by goGuard APIs.
//
// TenantConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TenantConfig struct {
	// CacheTTL enables the Redis read-through tenant cache when > 0 and a
	// Redis client is configured.
	CacheTTL    time.Duration
	CachePrefix string
}

// RateLimitConfig defines a public type used by goGuard APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Enabled     bool
	RedisPrefix string
	// Limits overrides individual tier budgets.
	Limits map[ratelimit.Tier]ratelimit.Limit
}

// WAFConfig defines a public type used by goGuard APIs.
//
// WAFConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type WAFConfig struct {
	Enabled         bool
	MaxPayloadBytes int64
	ExemptPaths     []string
	SkipHeaders     []string
}

// PipelineConfig defines a public type used by goGuard APIs.
//
// PipelineConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PipelineConfig struct {
	// AllowedOrigins are accepted for state-changing requests in addition to
	// the request's own host.
	AllowedOrigins []string
	// MaxBodyBytes caps JSON bodies decoded for validation.
	MaxBodyBytes int64
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig defines a public type used by goGuard APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goGuard APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// ReporterConfig throttles the default log-backed incident reporter.
type ReporterConfig struct {
	PerSecond float64
	Burst     int
}

// PermissionConfig defines a public type used by goGuard APIs.
//
// PermissionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PermissionConfig struct {
	// RootBitReserved registers SUPER_ADMIN as a root role that passes every
	// permission check.
	RootBitReserved bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a development configuration. Crypto.Secret must still
// be set before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	pw := password.DefaultParams()
	return Config{
		Environment: EnvDevelopment,
		NodeID:      1,
		Crypto: CryptoConfig{
			KDFIterations: vault.DefaultIterations,
		},
		Session: SessionConfig{
			TTL:        30 * time.Minute,
			CookieName: "admin_session",
		},
		Refresh: RefreshConfig{
			TTL:         7 * 24 * time.Hour,
			CookieName:  "refresh_token",
			RedisPrefix: "gg:rt",
		},
		Password: PasswordConfig{
			Memory:         pw.Memory,
			Time:           pw.Time,
			Parallelism:    pw.Parallelism,
			SaltLength:     pw.SaltLength,
			KeyLength:      pw.KeyLength,
			MinLength:      pw.MinLength,
			UpgradeOnLogin: true,
		},
		Tenant: TenantConfig{
			CacheTTL:    30 * time.Second,
			CachePrefix: "gg:tenant",
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			RedisPrefix: "gg:rl",
		},
		WAF: WAFConfig{
			Enabled:         true,
			MaxPayloadBytes: waf.DefaultMaxPayloadBytes,
			ExemptPaths:     append([]string(nil), waf.DefaultExemptPaths...),
		},
		Pipeline: PipelineConfig{
			MaxBodyBytes: 1 << 20,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Reporter: ReporterConfig{
			PerSecond: 5,
			Burst:     20,
		},
		Permissions: PermissionConfig{
			RootBitReserved: true,
		},
	}
}

// ProductionConfig returns DefaultConfig hardened for production: secure
// cookies, sanitized errors and blocking audit delivery.
func ProductionConfig() Config {
	cfg := defaultConfig()
	cfg.Environment = EnvProduction
	cfg.Audit.DropIfFull = false
	cfg.Session.CheckActive = true
	cfg.Refresh.SweepInterval = time.Hour
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.WAF.ExemptPaths = cloneStrings(cfg.WAF.ExemptPaths)
	out.WAF.SkipHeaders = cloneStrings(cfg.WAF.SkipHeaders)
	out.Pipeline.AllowedOrigins = cloneStrings(cfg.Pipeline.AllowedOrigins)
	if cfg.RateLimit.Limits != nil {
		out.RateLimit.Limits = make(map[ratelimit.Tier]ratelimit.Limit, len(cfg.RateLimit.Limits))
		for t, l := range cfg.RateLimit.Limits {
			out.RateLimit.Limits[t] = l
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}

// Production reports whether the environment is production.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// limits merges RateLimit.Limits over the built-in tier budgets.
func (c *Config) limits() map[ratelimit.Tier]ratelimit.Limit {
	out := ratelimit.DefaultLimits()
	for t, l := range c.RateLimit.Limits {
		out[t] = l
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return invalid("Environment must be %q or %q", EnvDevelopment, EnvProduction)
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return invalid("NodeID must be between 0 and 1023")
	}

	// Crypto
	if err := vault.ValidateSecret(c.Crypto.Secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Crypto.KDFIterations <= 0 {
		return invalid("Crypto KDFIterations must be > 0")
	}

	// Session
	if c.Session.TTL <= 0 {
		return invalid("Session TTL must be > 0")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return invalid("Session CookieName must be set")
	}
	if c.Refresh.TTL <= 0 {
		return invalid("Refresh TTL must be > 0")
	}
	if strings.TrimSpace(c.Refresh.CookieName) == "" {
		return invalid("Refresh CookieName must be set")
	}
	if c.Refresh.CookieName == c.Session.CookieName {
		return invalid("Refresh CookieName must differ from Session CookieName")
	}
	if c.Refresh.SweepInterval < 0 {
		return invalid("Refresh SweepInterval must be >= 0")
	}

	// Password
	if err := c.Password.params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Tenant
	if c.Tenant.CacheTTL < 0 {
		return invalid("Tenant CacheTTL must be >= 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		for tier, l := range c.limits() {
			if l.Requests <= 0 {
				return invalid("RateLimit tier %q Requests must be > 0", tier)
			}
			if l.Window < time.Millisecond {
				return invalid("RateLimit tier %q Window must be >= 1ms", tier)
			}
		}
	}

	// WAF
	if c.WAF.MaxPayloadBytes < 0 {
		return invalid("WAF MaxPayloadBytes must be >= 0")
	}
	for _, p := range c.WAF.ExemptPaths {
		if !strings.HasPrefix(p, "/") {
			return invalid("WAF ExemptPaths entries must start with '/': %q", p)
		}
	}

	// Pipeline
	if c.Pipeline.MaxBodyBytes <= 0 {
		return invalid("Pipeline MaxBodyBytes must be > 0")
	}
	for _, o := range c.Pipeline.AllowedOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return invalid("Pipeline AllowedOrigins entries must be absolute origins: %q", o)
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when enabled")
	}

	// Reporter
	if c.Reporter.PerSecond < 0 || c.Reporter.Burst < 0 {
		return invalid("Reporter PerSecond and Burst must be >= 0")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
