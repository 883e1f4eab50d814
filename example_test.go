package goGuard_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/pipeline"
	"github.com/MrEthical07/goGuard/ratelimit"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
)

// ExampleNew demonstrates engine construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := goGuard.ProductionConfig()
	cfg.Crypto.Secret = "<64+ character secret from goguard gen-secret>"
	cfg.Pipeline.AllowedOrigins = []string{"https://admin.example.com"}

	engine, err := goGuard.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCallerProvider(exampleCallers{}).
		WithTenantLookup(exampleTenants{}).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_Login shows a typical login entrypoint call and structured error handling.
func ExampleEngine_Login() {
	var engine *goGuard.Engine
	res, err := engine.Login(context.Background(), goGuard.LoginRequest{
		Identifier: "alice@example.com",
		Password:   "correct-horse-battery",
		UserType:   session.UserTypeTenantUser,
	})
	switch {
	case errors.Is(err, goGuard.ErrInvalidCredentials):
		// same response for unknown email, wrong password and inactive caller
	case err != nil:
		_ = err
	default:
		_ = res.SessionToken
	}
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *goGuard.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot.Counters[goGuard.MetricWAFBlocked]
}

// Example_pipeline wires a tenant-scoped, permission-checked route.
func Example_pipeline() {
	var engine *goGuard.Engine
	p := pipeline.New(engine)

	mux := http.NewServeMux()
	mux.Handle("/api/content", p.Handle(pipeline.Route{
		Methods:    []string{http.MethodPost},
		Tier:       ratelimit.TierAPI,
		Tenant:     true,
		Permission: permission.ContentWrite,
	}, func(w http.ResponseWriter, r *http.Request) error {
		scope, _ := tenant.ScopeFrom(r.Context())
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"tenant": scope.TenantID})
		return nil
	}))
}

type exampleCallers struct{}

func (exampleCallers) FindByIdentifier(context.Context, string, session.UserType) (goGuard.CallerRecord, error) {
	return goGuard.CallerRecord{}, goGuard.ErrCallerNotFound
}

func (exampleCallers) FindByID(context.Context, string, session.UserType) (goGuard.CallerRecord, error) {
	return goGuard.CallerRecord{}, goGuard.ErrCallerNotFound
}

type exampleTenants struct{}

func (exampleTenants) FindByID(context.Context, string) (*tenant.Tenant, error) {
	return nil, tenant.ErrTenantNotFound
}

func (exampleTenants) FindBySlug(context.Context, string) (*tenant.Tenant, error) {
	return nil, tenant.ErrTenantNotFound
}
