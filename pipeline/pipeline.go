package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/ratelimit"
)

// HandlerFunc is a route handler. A returned error is classified into the
// error envelope; unknown errors become a sanitized 500.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Route declares the security requirements of one endpoint.
type Route struct {
	// Methods lists the accepted methods. Empty accepts any.
	Methods []string
	// Tier selects the rate limit budget. Defaults to ratelimit.TierAPI.
	Tier ratelimit.Tier
	// Auth requires a valid session.
	Auth bool
	// RequireSuperAdmin restricts the route to platform operators. Implies Auth.
	RequireSuperAdmin bool
	// Permission is checked against the caller's role. Implies Auth.
	Permission string
	// Tenant resolves the tenant scope into the context. Implies Auth.
	Tenant bool
	// SkipWAF exempts the route from firewall inspection.
	SkipWAF bool
	// Body returns a fresh value to decode and validate the JSON body into.
	Body func() any
}

func (rt Route) needsAuth() bool {
	return rt.Auth || rt.RequireSuperAdmin || rt.Permission != "" || rt.Tenant
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithValidator replaces the body validator.
func WithValidator(v *validator.Validate) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.validate = v
		}
	}
}

// WithMaxBodyBytes overrides Pipeline.MaxBodyBytes from the engine config.
func WithMaxBodyBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBody = n
		}
	}
}

// Pipeline runs the per-route security stages in front of handlers.
type Pipeline struct {
	engine   *goGuard.Engine
	validate *validator.Validate
	maxBody  int64
	cookie   string
}

// New returns a Pipeline bound to engine.
func New(engine *goGuard.Engine, opts ...Option) *Pipeline {
	cfg := engine.Config()
	p := &Pipeline{
		engine:   engine,
		validate: newValidator(),
		maxBody:  cfg.Pipeline.MaxBodyBytes,
		cookie:   cfg.Session.CookieName,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

type bodyKey struct{}

// Body returns the decoded and validated request body of a route with Body set.
func Body[T any](r *http.Request) (T, bool) {
	v, ok := r.Context().Value(bodyKey{}).(T)
	return v, ok
}

// Handle wraps h with the stages route requires. Stages run in order and the
// first failure ends the request: method, rate limit, authentication,
// privilege, tenant, firewall, body validation. Panics and handler errors
// are caught at the outermost layer.
func (p *Pipeline) Handle(route Route, h HandlerFunc) http.Handler {
	tier := route.Tier
	if tier == "" {
		tier = ratelimit.TierAPI
	}
	allow := strings.Join(route.Methods, ", ")

	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		e := p.engine
		r = middleware.EnsureRequestID(e, rw, r)
		w := chimw.NewWrapResponseWriter(rw, r.ProtoMajor)

		defer func() {
			if rec := recover(); rec != nil {
				middleware.RecoverPanic(e, w, r, rec)
			}
		}()

		// 1. Method
		if len(route.Methods) > 0 && !methodAllowed(route.Methods, r.Method) {
			w.Header().Set("Allow", allow)
			middleware.WriteHTTPError(w, middleware.HTTPError{
				Status:  http.StatusMethodNotAllowed,
				Code:    middleware.CodeMethodNotAllowed,
				Message: "Method not allowed",
			})
			return
		}

		// 2. Rate limit
		if !middleware.ApplyRateLimit(e, w, r, tier) {
			return
		}

		// 3. Authentication
		if route.needsAuth() {
			ctx, _, err := middleware.AuthenticateRequest(e, r, p.cookie)
			if err != nil {
				middleware.WriteError(w, r, e, err)
				return
			}
			r = r.WithContext(ctx)
		}

		// 4. Privilege
		if route.RequireSuperAdmin || route.Permission != "" {
			caller, _ := goGuard.CallerFromContext(r.Context())
			if route.RequireSuperAdmin {
				if err := e.RequireSuperAdmin(caller); err != nil {
					middleware.WriteError(w, r, e, err)
					return
				}
			}
			if route.Permission != "" {
				if err := e.Authorize(caller, route.Permission); err != nil {
					middleware.WriteError(w, r, e, err)
					return
				}
			}
		}

		// 5. Tenant
		if route.Tenant {
			ctx, _, err := middleware.ResolveRequestTenant(e, r)
			if err != nil {
				middleware.WriteError(w, r, e, err)
				return
			}
			r = r.WithContext(ctx)
		}

		// 6. Firewall
		if !route.SkipWAF && !middleware.InspectRequest(e, w, r) {
			return
		}

		// 7. Body
		if route.Body != nil {
			body, err := p.decodeBody(w, r, route.Body())
			if err != nil {
				e.Metrics().Inc(goGuard.MetricValidationFailed)
				middleware.WriteError(w, r, e, err)
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), bodyKey{}, body))
		}

		// 8-10. Handler, bracketed by access logs.
		log := logging.FromContext(r.Context(), e.Logger())
		start := time.Now()
		log.Infow("request started", "method", r.Method, "path", r.URL.Path)

		if err := h(w, r); err != nil {
			he := middleware.Classify(err)
			if he.Code == middleware.CodeInternal {
				middleware.RespondInternal(e, w, r, "handler_error", err, nil)
			} else {
				middleware.WriteError(w, r, e, err)
			}
		}

		status := w.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Infow("request finished",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", w.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (p *Pipeline) decodeBody(w http.ResponseWriter, r *http.Request, dst any) (any, error) {
	if dst == nil {
		return nil, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, p.maxBody)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, NewValidationError(map[string]string{"body": "is too large"})
		case errors.Is(err, io.EOF):
			return nil, NewValidationError(map[string]string{"body": "is required"})
		default:
			return nil, NewValidationError(map[string]string{"body": "must be valid JSON"})
		}
	}
	if err := validateStruct(p.validate, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func methodAllowed(methods []string, m string) bool {
	for _, allowed := range methods {
		if strings.EqualFold(allowed, m) {
			return true
		}
	}
	if m == http.MethodHead {
		return methodAllowed(methods, http.MethodGet)
	}
	return false
}
