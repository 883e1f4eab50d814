package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
)

// Prefix is prepended to every variable name, e.g. GOGUARD_SECRET.
const Prefix = "goguard"

// Refresh store backends.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Spec is the environment of the goguard service.
type Spec struct {
	Environment string `envconfig:"environment" default:"development"`
	Secret      string `envconfig:"secret"`
	NodeID      int64  `envconfig:"node_id" default:"1"`

	Port            int           `envconfig:"port" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"shutdown_timeout" default:"15s"`

	LogLevel        string        `envconfig:"log_level" default:"info"`
	LogFormat       string        `envconfig:"log_format" default:"json"`
	LogFile         string        `envconfig:"log_file"`
	LogMaxAge       time.Duration `envconfig:"log_max_age" default:"168h"`
	LogRotationTime time.Duration `envconfig:"log_rotation_time" default:"24h"`

	DSN               string        `envconfig:"dsn"`
	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	RedisAddr     string `envconfig:"redis_addr" default:"localhost:6379"`
	RedisPassword string `envconfig:"redis_password"`
	RedisDB       int    `envconfig:"redis_db" default:"0"`

	RefreshStore  string        `envconfig:"refresh_store" default:"redis"`
	SessionTTL    time.Duration `envconfig:"session_ttl" default:"30m"`
	RefreshTTL    time.Duration `envconfig:"refresh_ttl" default:"168h"`
	SweepInterval time.Duration `envconfig:"sweep_interval" default:"0"`
	CheckActive   bool          `envconfig:"check_active" default:"false"`

	KDFIterations  int           `envconfig:"kdf_iterations" default:"0"`
	TenantCacheTTL time.Duration `envconfig:"tenant_cache_ttl" default:"30s"`

	RateLimitEnabled bool     `envconfig:"rate_limit_enabled" default:"true"`
	WAFEnabled       bool     `envconfig:"waf_enabled" default:"true"`
	AllowedOrigins   []string `envconfig:"allowed_origins"`
	CORSOrigins      []string `envconfig:"cors_origins"`
	MaxBodyBytes     int64    `envconfig:"max_body_bytes" default:"1048576"`

	AuditEnabled   bool `envconfig:"audit_enabled" default:"true"`
	MetricsEnabled bool `envconfig:"metrics_enabled" default:"true"`

	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"false"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	ServiceName      string `envconfig:"service_name" default:"goguard"`
}

// Load reads dotenv files into the process environment, then the GOGUARD_*
// variables. Without files, a .env in the working directory is loaded if
// present. Variables already set are never overridden.
func Load(files ...string) (*Spec, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	spec := new(Spec)
	if err := envconfig.Process(Prefix, spec); err != nil {
		return nil, fmt.Errorf("issues with environment sourcing: %w", err)
	}
	return spec, spec.validate()
}

func (s *Spec) validate() error {
	switch goGuard.Environment(s.Environment) {
	case goGuard.EnvDevelopment, goGuard.EnvProduction:
	default:
		return fmt.Errorf("%w: environment must be development or production, got %q", goGuard.ErrInvalidConfig, s.Environment)
	}
	switch s.RefreshStore {
	case StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("%w: refresh store must be redis or postgres, got %q", goGuard.ErrInvalidConfig, s.RefreshStore)
	}
	if s.RefreshStore == StorePostgres && s.DSN == "" {
		return fmt.Errorf("%w: postgres refresh store requires GOGUARD_DSN", goGuard.ErrInvalidConfig)
	}
	return nil
}

// Production reports whether the production profile is selected.
func (s *Spec) Production() bool {
	return goGuard.Environment(s.Environment) == goGuard.EnvProduction
}

// EngineConfig maps the environment onto the matching goGuard profile. Zero
// values keep the profile defaults.
func (s *Spec) EngineConfig() goGuard.Config {
	cfg := goGuard.DefaultConfig()
	if s.Production() {
		cfg = goGuard.ProductionConfig()
	}

	cfg.Crypto.Secret = s.Secret
	cfg.NodeID = s.NodeID
	if s.KDFIterations > 0 {
		cfg.Crypto.KDFIterations = s.KDFIterations
	}
	if s.SessionTTL > 0 {
		cfg.Session.TTL = s.SessionTTL
	}
	if s.RefreshTTL > 0 {
		cfg.Refresh.TTL = s.RefreshTTL
	}
	if s.SweepInterval > 0 {
		cfg.Refresh.SweepInterval = s.SweepInterval
	}
	cfg.Session.CheckActive = cfg.Session.CheckActive || s.CheckActive
	cfg.Tenant.CacheTTL = s.TenantCacheTTL

	cfg.RateLimit.Enabled = s.RateLimitEnabled
	cfg.WAF.Enabled = s.WAFEnabled
	cfg.Pipeline.AllowedOrigins = trimAll(s.AllowedOrigins)
	if s.MaxBodyBytes > 0 {
		cfg.Pipeline.MaxBodyBytes = s.MaxBodyBytes
	}

	cfg.Audit.Enabled = s.AuditEnabled
	cfg.Metrics.Enabled = s.MetricsEnabled
	return cfg
}

// LoggingConfig returns the logger settings.
func (s *Spec) LoggingConfig() logging.Config {
	return logging.Config{
		Level:        s.LogLevel,
		Format:       logging.Format(strings.ToLower(s.LogFormat)),
		File:         s.LogFile,
		MaxAge:       s.LogMaxAge,
		RotationTime: s.LogRotationTime,
	}
}

// Addr is the HTTP listen address.
func (s *Spec) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", s.Port)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
