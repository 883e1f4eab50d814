package goGuard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/ids"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/ratelimit"
	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/refresh/redisstore"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
	"github.com/MrEthical07/goGuard/vault"
	"github.com/MrEthical07/goGuard/waf"
)

// Builder defines a public type used by goGuard APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	permissions []string
	roles       map[string][]string

	callers     CallerProvider
	tenants     tenant.Lookup
	refreshRepo refresh.Repository
	auditSink   AuditSink
	logger      logging.Logger
	reporter    logging.Reporter
	now         func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with DefaultConfig and the built-in role table.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig copies cfg; later changes to the caller's value do not leak into the Builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for rate limiting, the tenant cache and,
// unless WithRefreshRepository is given, refresh token storage.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPermissions replaces the built-in permission names.
func (b *Builder) WithPermissions(perms []string) *Builder {
	b.permissions = perms
	return b
}

// WithRoles replaces the built-in tenant role table.
func (b *Builder) WithRoles(r map[string][]string) *Builder {
	b.roles = r
	return b
}

// WithCallerProvider describes the withcallerprovider operation and its observable behavior.
//
// The provider is required. If it also implements PasswordUpdater, hashes are
// upgraded on login when Password.UpgradeOnLogin is set.
func (b *Builder) WithCallerProvider(p CallerProvider) *Builder {
	b.callers = p
	return b
}

// WithTenantLookup sets the tenant source. It is required.
func (b *Builder) WithTenantLookup(l tenant.Lookup) *Builder {
	b.tenants = l
	return b
}

// WithRefreshRepository overrides the Redis refresh repository, e.g. with
// refresh/pgstore.
func (b *Builder) WithRefreshRepository(repo refresh.Repository) *Builder {
	b.refreshRepo = repo
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// Without a sink, audit events are written through the engine logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

// WithReporter sets the incident sink. Defaults to a throttled LogReporter.
func (b *Builder) WithReporter(r logging.Reporter) *Builder {
	b.reporter = r
	return b
}

// WithClock injects the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration, wires every component and starts the
// audit dispatcher. A Builder can be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.callers == nil {
		return nil, errors.New("caller provider required")
	}
	if b.tenants == nil {
		return nil, errors.New("tenant lookup required")
	}
	if b.redis == nil {
		if cfg.RateLimit.Enabled {
			return nil, errors.New("RateLimit requires redis client")
		}
		if b.refreshRepo == nil {
			return nil, errors.New("redis client or refresh repository required")
		}
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	log := b.logger
	if log == nil {
		log = logging.NewNop()
	}

	engine := &Engine{
		config:   cloneConfig(cfg),
		log:      log,
		callers:  b.callers,
		now:      now,
		reporter: b.reporter,
	}
	if engine.reporter == nil {
		engine.reporter = logging.NewLogReporter(log, cfg.Reporter.PerSecond, cfg.Reporter.Burst)
	}
	if up, ok := b.callers.(PasswordUpdater); ok && cfg.Password.UpgradeOnLogin {
		engine.passwords = up
	}

	// -------- CRYPTO --------
	v, err := vault.New(cfg.Crypto.Secret, vault.WithIterations(cfg.Crypto.KDFIterations))
	if err != nil {
		return nil, err
	}
	codec, err := session.NewCodec(cfg.Crypto.Secret, session.WithTTL(cfg.Session.TTL), session.WithClock(now))
	if err != nil {
		return nil, err
	}
	engine.codec = codec

	hasher, err := password.NewHasher(cfg.Password.params())
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	// -------- REFRESH STORE --------
	repo := b.refreshRepo
	if repo == nil {
		repo = redisstore.New(b.redis, cfg.Refresh.RedisPrefix)
	}
	engine.refresh = refresh.NewStore(repo, v,
		refresh.WithTTL(cfg.Refresh.TTL),
		refresh.WithClock(now),
		refresh.WithLogger(log),
	)

	// -------- PERMISSIONS --------
	registry, roles, err := buildRoles(cfg.Permissions, b.permissions, b.roles)
	if err != nil {
		return nil, err
	}
	engine.registry = registry
	engine.roles = roles

	// -------- TENANT --------
	lookup := b.tenants
	if b.redis != nil && cfg.Tenant.CacheTTL > 0 {
		lookup = tenant.NewCachedLookup(lookup, b.redis, cfg.Tenant.CachePrefix, cfg.Tenant.CacheTTL, log)
	}
	engine.resolver = tenant.NewResolver(lookup, tenant.WithResolverLogger(log))
	engine.guard = tenant.NewGuard(
		tenant.WithGuardLogger(log),
		tenant.WithViolationHook(engine.onTenantContextViolation),
	)

	// -------- REQUEST SECURITY --------
	if cfg.WAF.Enabled {
		engine.firewall = waf.New(waf.Config{
			MaxPayloadBytes: cfg.WAF.MaxPayloadBytes,
			ExemptPaths:     cfg.WAF.ExemptPaths,
			SkipHeaders:     cfg.WAF.SkipHeaders,
		})
	}
	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.New(b.redis,
			ratelimit.WithLimits(cfg.RateLimit.Limits),
			ratelimit.WithPrefix(cfg.RateLimit.RedisPrefix),
			ratelimit.WithClock(now),
			ratelimit.WithLogger(log),
			ratelimit.WithDegradedHook(func(context.Context, ratelimit.Tier, error) {
				engine.metricInc(MetricRateLimitDegraded)
			}),
		)
		if err != nil {
			return nil, err
		}
		engine.limiter = limiter
	}

	// -------- OBSERVABILITY --------
	events, err := ids.NewEventGenerator(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	sink := b.auditSink
	if sink == nil {
		sink = NewLoggerSink(log)
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		NextID:     events.Next,
		Now:        func() time.Time { return now().UTC() },
	}, sink)
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.flows = engine.buildFlows()

	b.built = true

	return engine, nil
}

// buildRoles registers permissions and roles and freezes both. SUPER_ADMIN is
// registered as the root role when the root bit is reserved.
func buildRoles(cfg PermissionConfig, perms []string, roles map[string][]string) (*permission.Registry, *permission.RoleManager, error) {
	if len(perms) == 0 {
		perms = permission.DefaultPermissions()
	}
	if len(roles) == 0 {
		roles = permission.DefaultRoles()
	}

	registry := permission.NewRegistry(cfg.RootBitReserved)
	for _, p := range perms {
		if _, err := registry.Register(p); err != nil {
			return nil, nil, err
		}
	}
	registry.Freeze()

	manager := permission.NewRoleManager(registry)
	for name, list := range roles {
		if err := manager.RegisterRole(name, list); err != nil {
			return nil, nil, err
		}
	}
	if cfg.RootBitReserved {
		if _, ok := roles[permission.RoleSuperAdmin]; !ok {
			if err := manager.RegisterRootRole(permission.RoleSuperAdmin); err != nil {
				return nil, nil, err
			}
		}
	}
	manager.Freeze()

	return registry, manager, nil
}
