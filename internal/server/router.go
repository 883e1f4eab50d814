package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/internal/monitoring"
	"github.com/MrEthical07/goGuard/internal/tracing"
	"github.com/MrEthical07/goGuard/logging"
	promexport "github.com/MrEthical07/goGuard/metrics/export/prometheus"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/pipeline"
	"github.com/MrEthical07/goGuard/ratelimit"
	"github.com/MrEthical07/goGuard/session"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// Options wires the router.
type Options struct {
	Engine  *goGuard.Engine
	Monitor *monitoring.Monitor
	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string
	// Checks are run by GET /api/health.
	Checks map[string]Check
	// Tracing wraps the router in the otelhttp server middleware.
	Tracing bool
}

// NewRouter returns the goguard HTTP API.
func NewRouter(o Options) http.Handler {
	e := o.Engine
	a := &api{
		engine: e,
		p:      pipeline.New(e),
		log:    e.Logger(),
		checks: o.Checks,
	}

	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0, 6)
	middlewares = append(middlewares,
		middleware.RequestID(e),
		middleware.SecurityHeaders,
	)
	if len(o.CORSOrigins) > 0 {
		middlewares = append(middlewares, cors.Handler(cors.Options{
			AllowedOrigins:   o.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderRequestID, "X-Tenant-Id"},
			ExposedHeaders:   []string{middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if o.Monitor != nil {
		middlewares = append(middlewares, o.Monitor.Instrument)
	}
	middlewares = append(middlewares,
		middleware.Recover(e),
		middleware.ValidateOrigin(e),
	)
	router.Use(middlewares...)

	post := []string{http.MethodPost}
	get := []string{http.MethodGet}
	loginBody := func() any { return &goGuard.LoginRequest{} }

	router.Method(http.MethodGet, "/api/health", a.p.Handle(pipeline.Route{Methods: get}, a.health))

	// /metrics is scraped by infrastructure and bypasses the pipeline.
	if o.Monitor != nil {
		if err := o.Monitor.Register(promexport.NewCollector(e)); err != nil {
			a.log.Warnw("engine metrics collector not registered", "error", err)
		}
		router.Method(http.MethodGet, "/metrics", o.Monitor.Handler())
	}

	router.Route("/api/auth", func(r chi.Router) {
		r.Method(http.MethodPost, "/login", a.p.Handle(pipeline.Route{Methods: post, Tier: ratelimit.TierAuth, Body: loginBody}, a.login("")))
		r.Method(http.MethodPost, "/refresh", a.p.Handle(pipeline.Route{Methods: post, Tier: ratelimit.TierAuth}, a.refresh))
		r.Method(http.MethodPost, "/logout", a.p.Handle(pipeline.Route{Methods: post, Tier: ratelimit.TierAuth}, a.logout))
		r.Method(http.MethodPost, "/logout-all", a.p.Handle(pipeline.Route{Methods: post, Tier: ratelimit.TierAuth, Auth: true}, a.logoutAll))
		r.Method(http.MethodGet, "/verify", a.p.Handle(pipeline.Route{Methods: get, Auth: true}, a.verify))
		r.Method(http.MethodGet, "/session", a.p.Handle(pipeline.Route{Methods: get, Tenant: true}, a.session))
	})

	router.Route("/api/super-admin", func(r chi.Router) {
		r.Method(http.MethodPost, "/login", a.p.Handle(pipeline.Route{Methods: post, Tier: ratelimit.TierAuth, Body: loginBody}, a.login(session.UserTypeSuperAdmin)))
		r.Method(http.MethodGet, "/security", a.p.Handle(pipeline.Route{Methods: get, Tier: ratelimit.TierSuperAdmin, RequireSuperAdmin: true}, a.posture))
	})

	router.Route("/api/admin", func(r chi.Router) {
		r.Method(http.MethodGet, "/security", a.p.Handle(pipeline.Route{Methods: get, Tier: ratelimit.TierAdmin, Tenant: true, Permission: permission.SecurityRead}, a.posture))
	})

	router.Method(http.MethodPost, "/api/security/report", a.p.Handle(pipeline.Route{Methods: post, SkipWAF: true}, a.cspReport))

	var h http.Handler = router
	if o.Tracing {
		h = tracing.Middleware(h)
	}
	return h
}

// Server runs the router with graceful shutdown.
type Server struct {
	srv *http.Server
	log logging.Logger
}

// New returns a Server listening on addr.
func New(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, log logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is done, then shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Infow("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(sctx)
}
