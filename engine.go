package goGuard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/ids"
	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/MrEthical07/goGuard/ratelimit"
	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
	"github.com/MrEthical07/goGuard/waf"
)

// Engine defines a public type used by goGuard APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config    Config
	log       logging.Logger
	reporter  logging.Reporter
	codec     *session.Codec
	hasher    *password.Hasher
	refresh   *refresh.Store
	registry  *permission.Registry
	roles     *permission.RoleManager
	resolver  *tenant.Resolver
	guard     *tenant.Guard
	firewall  *waf.Firewall
	limiter   *ratelimit.Limiter
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	flows     flows.Service
	callers   CallerProvider
	passwords PasswordUpdater
	now       func() time.Time
}

func (e *Engine) buildFlows() flows.Service {
	lookup := flows.CallerLookup{
		ByIdentifier: func(ctx context.Context, identifier string, userType session.UserType) (flows.CallerRecord, error) {
			rec, err := e.callers.FindByIdentifier(ctx, identifier, userType)
			return flows.CallerRecord(rec), err
		},
		ByID: func(ctx context.Context, id string, userType session.UserType) (flows.CallerRecord, error) {
			rec, err := e.callers.FindByID(ctx, id, userType)
			return flows.CallerRecord(rec), err
		},
		NotFound: ErrCallerNotFound,
	}
	issuer := flows.Issuer{
		SignSession:  e.codec.Sign,
		SessionTTL:   e.codec.TTL(),
		IssueRefresh: e.refresh.Issue,
		Now:          e.now,
	}

	var rehash func(ctx context.Context, callerID, pw string) error
	if e.passwords != nil {
		rehash = func(ctx context.Context, callerID, pw string) error {
			encoded, err := e.hasher.Hash(pw)
			if err != nil {
				return err
			}
			return e.passwords.UpdatePasswordHash(ctx, callerID, encoded)
		}
	}

	return flows.New(flows.Deps{
		Login: flows.LoginDeps{
			Callers:     lookup,
			Verify:      e.hasher.Verify,
			DummyVerify: e.hasher.DummyVerify,
			NeedsRehash: func(encoded string) bool {
				stale, err := e.hasher.NeedsRehash(encoded)
				return err == nil && stale
			},
			Rehash: rehash,
			Issuer: issuer,
			Warn:   e.log.Warnw,
		},
		Refresh: flows.RefreshDeps{
			Validate: e.refresh.Validate,
			Consume:  e.refresh.Consume,
			Revoke:   e.refresh.Revoke,
			Callers:  lookup,
			Issuer:   issuer,
			Warn:     e.log.Warnw,
		},
		Logout: flows.LogoutDeps{
			Revoke:    e.refresh.Revoke,
			RevokeAll: e.refresh.RevokeAll,
		},
		Authenticate: flows.AuthenticateDeps{
			Verify:      e.codec.Verify,
			CheckActive: e.config.Session.CheckActive,
			Callers:     lookup,
		},
	})
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Close describes the close operation and its observable behavior.
//
// Close drains pending audit events and stops the dispatcher. It is safe to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot returns empty maps when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics returns the live counter set. Its methods are nil-safe.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Logger returns the engine logger.
func (e *Engine) Logger() logging.Logger {
	if e == nil || e.log == nil {
		return logging.NewNop()
	}
	return e.log
}

// Guard returns the tenant isolation guard used for data access.
func (e *Engine) Guard() *tenant.Guard {
	if e == nil {
		return nil
	}
	return e.guard
}

// Roles returns the frozen role table.
func (e *Engine) Roles() *permission.RoleManager {
	if e == nil {
		return nil
	}
	return e.roles
}

// Production reports whether the engine runs in production mode.
func (e *Engine) Production() bool {
	return e != nil && e.config.Production()
}

// HashPassword returns an Argon2id PHC hash of pw for storage by the host.
func (e *Engine) HashPassword(pw string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(pw)
}

/*
====================================
AUTH FLOWS
====================================
*/

// Login describes the login operation and its observable behavior.
//
// Login verifies credentials through the CallerProvider and, on success,
// issues a session token and a refresh token. Unknown identifiers and wrong
// passwords both return ErrInvalidCredentials after equivalent hashing work.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	log := logging.FromContext(ctx, e.log)

	res := e.flows.Login(ctx, flows.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		UserType:   req.UserType,
	})
	if res.Failure != flows.LoginFailureNone {
		err := loginError(res)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Caller.ID, res.Caller.TenantID, err, func() map[string]string {
			return map[string]string{
				"identifier": strings.ToLower(strings.TrimSpace(req.Identifier)),
			}
		})
		switch res.Failure {
		case flows.LoginFailureLookup, flows.LoginFailureIssueSession, flows.LoginFailureIssueRefresh, flows.LoginFailureTenantMissing:
			log.Errorw("login failed", "user_id", res.Caller.ID, "error", err)
		default:
			log.Infow("login rejected", "user_id", res.Caller.ID, "error", err)
		}
		return nil, err
	}

	out, err := e.result(res.Tokens)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, out.Caller.ID, out.Caller.TenantID, nil, func() map[string]string {
		return map[string]string{
			"user_type": string(out.Caller.Type),
			"rehashed":  strconv.FormatBool(res.Rehashed),
		}
	})
	log.Infow("login succeeded", "user_id", out.Caller.ID, "tenant_id", out.Caller.TenantID, "user_type", string(out.Caller.Type))
	return out, nil
}

func loginError(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureLookup:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, res.Err)
	case flows.LoginFailureInactive:
		return ErrCallerInactive
	case flows.LoginFailureTenantMissing:
		return tenant.ErrTenantContextMissing
	case flows.LoginFailureIssueSession, flows.LoginFailureIssueRefresh:
		return fmt.Errorf("%w: %v", ErrSessionIssue, res.Err)
	default:
		return ErrInvalidCredentials
	}
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh validates refreshToken, reloads the caller, revokes the presented
// token and issues a new pair. A token can be rotated at most once; the loser
// of a concurrent rotation gets refresh.ErrTokenRevoked.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	log := logging.FromContext(ctx, e.log)

	res := e.flows.Refresh(ctx, refreshToken)
	if res.Failure != flows.RefreshFailureNone {
		err := refreshError(res)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.Principal.UserID, res.Principal.TenantID, err, func() map[string]string {
			return map[string]string{
				"reason": refreshFailureReason(res.Failure),
			}
		})
		log.Infow("refresh rejected", "user_id", res.Principal.UserID, "reason", refreshFailureReason(res.Failure), "error", err)
		return nil, err
	}

	out, err := e.result(res.Tokens)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, out.Caller.ID, out.Caller.TenantID, nil, nil)
	return out, nil
}

func refreshError(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureMissing:
		return refresh.ErrTokenNotFound
	case flows.RefreshFailureInvalid, flows.RefreshFailureRotate:
		if res.Err != nil {
			return res.Err
		}
		return refresh.ErrTokenInvalid
	case flows.RefreshFailureCallerGone, flows.RefreshFailureTenantChanged:
		return refresh.ErrTokenRevoked
	case flows.RefreshFailureInactive:
		return ErrCallerInactive
	case flows.RefreshFailureLookup:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, res.Err)
	case flows.RefreshFailureIssueSession, flows.RefreshFailureIssueRefresh:
		return fmt.Errorf("%w: %v", ErrSessionIssue, res.Err)
	default:
		return refresh.ErrTokenInvalid
	}
}

func refreshFailureReason(k flows.RefreshFailureKind) string {
	switch k {
	case flows.RefreshFailureMissing:
		return "missing"
	case flows.RefreshFailureInvalid:
		return "invalid"
	case flows.RefreshFailureCallerGone:
		return "caller_gone"
	case flows.RefreshFailureLookup:
		return "lookup"
	case flows.RefreshFailureInactive:
		return "inactive"
	case flows.RefreshFailureTenantChanged:
		return "tenant_changed"
	case flows.RefreshFailureRotate:
		return "rotate"
	case flows.RefreshFailureIssueSession:
		return "issue_session"
	case flows.RefreshFailureIssueRefresh:
		return "issue_refresh"
	default:
		return "none"
	}
}

// result re-reads the freshly signed session so the returned Caller carries
// the same jti and expiry as the token.
func (e *Engine) result(t flows.Tokens) (*LoginResult, error) {
	claims, err := e.codec.Verify(t.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionIssue, err)
	}
	return &LoginResult{
		Caller:           *callerFromClaims(claims),
		SessionToken:     t.SessionToken,
		SessionExpiresAt: t.SessionExpiresAt,
		RefreshToken:     t.RefreshToken,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}, nil
}

// Logout revokes refreshToken. An empty or unknown token is not an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.flows.Logout(ctx, refreshToken); err != nil {
		logging.FromContext(ctx, e.log).Errorw("logout failed", "error", err)
		return logoutError(err)
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, "", "", nil, nil)
	return nil
}

// LogoutAll revokes every refresh token held by caller and returns how many
// were revoked.
func (e *Engine) LogoutAll(ctx context.Context, caller *Caller) (int64, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	if caller == nil {
		return 0, session.ErrMissingToken
	}
	n, err := e.flows.LogoutAll(ctx, caller.ID, caller.Type)
	if err != nil {
		logging.FromContext(ctx, e.log).Errorw("logout all failed", "user_id", caller.ID, "error", err)
		return 0, logoutError(err)
	}
	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, caller.ID, caller.TenantID, nil, func() map[string]string {
		return map[string]string{"revoked": strconv.FormatInt(n, 10)}
	})
	return n, nil
}

// logoutError folds token-level refresh errors into ErrTokenInvalid and
// passes store failures through so they surface as internal errors rather
// than a rejected token.
func logoutError(err error) error {
	switch {
	case errors.Is(err, refresh.ErrTokenNotFound),
		errors.Is(err, refresh.ErrTokenExpired),
		errors.Is(err, refresh.ErrTokenRevoked),
		errors.Is(err, refresh.ErrTokenInvalid):
		return fmt.Errorf("%w: %v", refresh.ErrTokenInvalid, err)
	default:
		return err
	}
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate verifies a session token and returns the caller it names. It
// fails with the session package errors, or ErrCallerInactive when
// Session.CheckActive is set and the caller was deactivated.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Caller, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}()

	res := e.flows.Authenticate(ctx, token)
	switch res.Failure {
	case flows.AuthenticateFailureNone:
		return callerFromClaims(res.Claims), nil
	case flows.AuthenticateFailureInactive:
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrCallerInactive
	case flows.AuthenticateFailureLookup:
		e.metricInc(MetricAuthenticateFailure)
		logging.FromContext(ctx, e.log).Errorw("caller lookup failed during authentication", "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, res.Err)
	default:
		e.metricInc(MetricAuthenticateFailure)
		return nil, res.Err
	}
}

// SweepExpiredRefreshTokens deletes refresh records past expiry.
func (e *Engine) SweepExpiredRefreshTokens(ctx context.Context) (int64, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	n, err := e.refresh.SweepExpired(ctx)
	if err != nil {
		e.log.Errorw("refresh sweep failed", "error", err)
		return 0, err
	}
	if e.metrics != nil {
		e.metrics.Add(MetricRefreshSwept, uint64(n))
	}
	e.emitAudit(ctx, auditEventRefreshSwept, true, "", "", nil, func() map[string]string {
		return map[string]string{"deleted": strconv.FormatInt(n, 10)}
	})
	e.log.Infow("refresh sweep finished", "deleted", n)
	return n, nil
}

/*
====================================
AUTHORIZATION
====================================
*/

// Authorize returns ErrForbidden unless caller's role grants perm. Super
// admins pass every check when the root bit is reserved.
func (e *Engine) Authorize(caller *Caller, perm string) error {
	if e == nil || e.roles == nil {
		return ErrEngineNotReady
	}
	if caller == nil {
		return ErrForbidden
	}
	role := caller.Role
	if caller.IsSuperAdmin() {
		role = permission.RoleSuperAdmin
	}
	if !e.roles.Allows(role, perm) {
		return fmt.Errorf("%w: %s", ErrForbidden, perm)
	}
	return nil
}

// Permissions returns the permission names granted to caller.
func (e *Engine) Permissions(caller *Caller) []string {
	if e == nil || e.roles == nil || caller == nil {
		return nil
	}
	if caller.IsSuperAdmin() {
		return e.roles.Permissions(permission.RoleSuperAdmin)
	}
	return e.roles.Permissions(caller.Role)
}

// RequireSuperAdmin returns ErrForbidden for anyone but a platform operator.
func (e *Engine) RequireSuperAdmin(caller *Caller) error {
	if !caller.IsSuperAdmin() {
		return fmt.Errorf("%w: super admin required", ErrForbidden)
	}
	return nil
}

// EnsureTenantAdmin allows super admins and tenant OWNER or ADMIN roles.
func (e *Engine) EnsureTenantAdmin(caller *Caller) error {
	if caller.IsSuperAdmin() {
		return nil
	}
	if caller == nil || !permission.IsTenantAdmin(caller.Role) {
		return fmt.Errorf("%w: tenant admin required", ErrForbidden)
	}
	return nil
}

/*
====================================
REQUEST SECURITY
====================================
*/

// ResolveTenant decides which tenant the request acts as. Isolation
// violations are counted and audited at high severity.
func (e *Engine) ResolveTenant(ctx context.Context, caller *Caller, hint tenant.Hint) (tenant.Scope, error) {
	if e == nil || e.resolver == nil {
		return tenant.Scope{}, ErrEngineNotReady
	}
	if caller == nil {
		return tenant.Scope{}, tenant.ErrInvalidCallerType
	}

	scope, err := e.resolver.Resolve(ctx, caller.TenantCaller(), hint)
	if err == nil {
		e.metricInc(MetricTenantResolved)
		return scope, nil
	}

	event := AuditEvent{
		EventType: auditEventTenantDenied,
		UserID:    caller.ID,
		UserType:  string(caller.Type),
		TenantID:  caller.TenantID,
		Severity:  "medium",
		Error:     string(auditErrorCode(err)),
		Metadata: map[string]string{
			"requested_tenant": hint.TenantID,
			"requested_slug":   hint.TenantSlug,
		},
	}
	if errors.Is(err, tenant.ErrIsolationViolation) {
		e.metricInc(MetricIsolationViolation)
		event.EventType = auditEventIsolationViolation
		event.Severity = "high"
	} else {
		e.metricInc(MetricTenantDenied)
	}
	e.dispatchAudit(ctx, event)
	return tenant.Scope{}, err
}

func (e *Engine) onTenantContextViolation(ctx context.Context, rt tenant.ResourceType) {
	e.metricInc(MetricTenantContextRequired)
	e.dispatchAudit(ctx, AuditEvent{
		EventType: auditEventTenantContextMissing,
		Severity:  "critical",
		Error:     string(auditErrTenantRequired),
		Metadata:  map[string]string{"resource": string(rt)},
	})
	e.Report(ctx, logging.Incident{
		Kind:     "tenant_context_required",
		Severity: "critical",
		Message:  "isolated resource accessed without tenant context",
		Err:      tenant.ErrTenantContextRequired,
		Tags:     map[string]string{"resource": string(rt)},
	})
}

// CheckRateLimit consumes one request from identity's budget in tier. With
// rate limiting disabled every request is allowed.
func (e *Engine) CheckRateLimit(ctx context.Context, identity string, tier ratelimit.Tier) ratelimit.Decision {
	if e == nil || e.limiter == nil {
		return ratelimit.Decision{Tier: tier, Allowed: true}
	}
	d := e.limiter.Check(ctx, identity, tier)
	if !d.Allowed {
		e.emitRateLimit(ctx, identity, d)
	}
	return d
}

// Inspect runs the request firewall over r. Blocks are counted; high and
// critical blocks are also audited and reported as incidents.
func (e *Engine) Inspect(r *http.Request) Inspection {
	if e == nil || e.firewall == nil {
		return Inspection{}
	}
	v := e.firewall.Analyze(r)
	if !v.Blocked {
		return Inspection{Verdict: v}
	}

	ins := Inspection{Verdict: v, IncidentID: ids.IncidentID()}
	e.metricInc(MetricWAFBlocked)
	if !v.Severity.Alerting() {
		return ins
	}

	ctx := r.Context()
	e.metricInc(MetricWAFAlert)
	tags := map[string]string{
		"incident_id": ins.IncidentID,
		"family":      string(v.Family),
		"location":    v.Location,
		"ip":          ratelimit.ClientIdentity(r),
	}
	e.dispatchAudit(ctx, AuditEvent{
		EventType: auditEventWAFBlocked,
		Path:      r.URL.Path,
		IP:        ratelimit.ClientIdentity(r),
		Severity:  string(v.Severity),
		Error:     string(v.Family),
		Metadata:  tags,
	})
	e.Report(ctx, logging.Incident{
		Kind:     "waf_block",
		Severity: string(v.Severity),
		Message:  "request blocked by firewall",
		Path:     r.URL.Path,
		Method:   r.Method,
		Tags:     tags,
	})
	return ins
}

// CheckOrigin rejects state-changing requests whose Origin or Referer is
// neither in Pipeline.AllowedOrigins nor the request's own host. Requests
// without either header pass. The check is skipped outside production.
func (e *Engine) CheckOrigin(r *http.Request) error {
	if e == nil || !e.config.Production() {
		return nil
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil
	}

	var bad string
	if origin := r.Header.Get("Origin"); origin != "" && !e.originAllowed(origin, r.Host) {
		bad = origin
	} else if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err != nil || u.Host == "" {
			bad = ref
		} else if o := u.Scheme + "://" + u.Host; !e.originAllowed(o, r.Host) {
			bad = o
		}
	}
	if bad == "" {
		return nil
	}

	e.metricInc(MetricOriginRejected)
	e.dispatchAudit(r.Context(), AuditEvent{
		EventType: auditEventOriginRejected,
		Path:      r.URL.Path,
		IP:        ratelimit.ClientIdentity(r),
		Severity:  "medium",
		Error:     string(auditErrOrigin),
		Metadata:  map[string]string{"origin": bad},
	})
	logging.FromContext(r.Context(), e.log).Warnw("origin rejected", "origin", bad, "host", r.Host, "path", r.URL.Path)
	return fmt.Errorf("%w: %s", ErrOriginRejected, bad)
}

func (e *Engine) originAllowed(origin, host string) bool {
	for _, o := range e.config.Pipeline.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host != "" && strings.EqualFold(u.Host, host)
}

// Report forwards inc to the incident sink, filling request id, caller and
// tenant from ctx.
func (e *Engine) Report(ctx context.Context, inc logging.Incident) {
	if e == nil || e.reporter == nil {
		return
	}
	if inc.RequestID == "" {
		inc.RequestID = RequestIDFromContext(ctx)
	}
	if c, ok := CallerFromContext(ctx); ok && inc.UserID == "" {
		inc.UserID = c.ID
	}
	if inc.TenantID == "" {
		inc.TenantID = tenantIDFromContext(ctx)
	}
	if inc.Time.IsZero() {
		inc.Time = e.now()
	}
	if inc.Kind == "panic" {
		e.metricInc(MetricPanicRecovered)
	}
	e.reporter.Report(ctx, inc)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
