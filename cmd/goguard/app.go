package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/internal/accounts"
	"github.com/MrEthical07/goGuard/internal/config"
	"github.com/MrEthical07/goGuard/internal/db"
	"github.com/MrEthical07/goGuard/internal/tracing"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/refresh/pgstore"
	"github.com/MrEthical07/goGuard/tenant"
)

// app holds every dependency opened by bootstrap. close releases them in
// reverse order.
type app struct {
	spec   *config.Spec
	log    logging.Logger
	redis  redis.UniversalClient
	db     *db.Client
	tracer *tracing.Provider
	engine *goGuard.Engine
}

func bootstrap(ctx context.Context) (*app, error) {
	spec, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if spec.DSN == "" {
		return nil, fmt.Errorf("%w: GOGUARD_DSN is required", goGuard.ErrInvalidConfig)
	}

	log, err := logging.New(spec.LoggingConfig())
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	a := &app{spec: spec, log: log}

	a.tracer, err = tracing.NewProvider(ctx, tracing.Config{
		Enabled:     spec.TracingEnabled,
		Endpoint:    spec.OtelHTTPEndpoint,
		ServiceName: spec.ServiceName,
		Logger:      log,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.redis = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{spec.RedisAddr},
		Password: spec.RedisPassword,
		DB:       spec.RedisDB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		a.close()
		return nil, fmt.Errorf("redis ping %s: %w", spec.RedisAddr, err)
	}

	a.db, err = db.NewClient(ctx, db.Config{
		DSN:             spec.DSN,
		MaxConns:        spec.DBMaxConns,
		MinConns:        spec.DBMinConns,
		MaxConnLifetime: spec.DBMaxConnLifetime,
		MaxConnIdleTime: spec.DBMaxConnIdleTime,
		TracingEnabled:  spec.TracingEnabled,
	}, log)
	if err != nil {
		a.close()
		return nil, err
	}

	b := goGuard.New().
		WithConfig(spec.EngineConfig()).
		WithRedis(a.redis).
		WithCallerProvider(accounts.NewRepository(a.db.SQLX())).
		WithTenantLookup(tenant.NewSQLRepository(a.db.SQLX())).
		WithLogger(log)
	if spec.RefreshStore == config.StorePostgres {
		b = b.WithRefreshRepository(pgstore.New(a.db))
	}
	a.engine, err = b.Build()
	if err != nil {
		a.close()
		return nil, err
	}

	log.Infow("goguard bootstrapped",
		"environment", spec.Environment,
		"refresh_store", spec.RefreshStore,
		"rate_limit", spec.RateLimitEnabled,
		"waf", spec.WAFEnabled,
	)
	return a, nil
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.tracer != nil {
		_ = a.tracer.Shutdown(context.Background())
	}
	_ = a.log.Sync()
}
