package goGuard

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/ratelimit"
	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventLogoutSession        = "logout_session"
	auditEventLogoutAll            = "logout_all"
	auditEventTenantDenied         = "tenant_denied"
	auditEventIsolationViolation   = "isolation_violation"
	auditEventTenantContextMissing = "tenant_context_required"
	auditEventWAFBlocked           = "waf_blocked"
	auditEventRateLimitTriggered   = "rate_limit_triggered"
	auditEventOriginRejected       = "origin_rejected"
	auditEventRefreshSwept         = "refresh_swept"
)

// AuditErrorCode defines a public type used by goGuard APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrCallerInactive     AuditErrorCode = "caller_inactive"
	auditErrMissingToken       AuditErrorCode = "missing_token"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrRefreshInvalid     AuditErrorCode = "refresh_invalid"
	auditErrTenantNotFound     AuditErrorCode = "tenant_not_found"
	auditErrTenantInactive     AuditErrorCode = "tenant_inactive"
	auditErrTenantMissing      AuditErrorCode = "tenant_context_missing"
	auditErrTenantRequired     AuditErrorCode = "tenant_context_required"
	auditErrIsolation          AuditErrorCode = "isolation_violation"
	auditErrCallerType         AuditErrorCode = "invalid_caller_type"
	auditErrTenantMismatch     AuditErrorCode = "tenant_mismatch"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrOrigin             AuditErrorCode = "invalid_origin"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrSessionIssue       AuditErrorCode = "session_creation_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	tenantID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		TenantID:  tenantID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}
	e.dispatchAudit(ctx, event)
}

// dispatchAudit fills request context into event and hands it to the
// dispatcher. Id and timestamp are stamped by the dispatcher.
func (e *Engine) dispatchAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.TenantID == "" {
		event.TenantID = tenantIDFromContext(ctx)
	}
	if c, ok := CallerFromContext(ctx); ok {
		if event.UserID == "" {
			event.UserID = c.ID
		}
		if event.UserType == "" {
			event.UserType = string(c.Type)
		}
	}
	if event.RequestID == "" {
		event.RequestID = RequestIDFromContext(ctx)
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, identity string, d ratelimit.Decision) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", "", ratelimit.ErrLimitExceeded, func() map[string]string {
		return map[string]string{
			"tier":     string(d.Tier),
			"identity": identity,
			"limit":    itoa(d.Limit),
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrCallerInactive):
		return auditErrCallerInactive
	case errors.Is(err, session.ErrMissingToken):
		return auditErrMissingToken
	case errors.Is(err, session.ErrExpiredToken):
		return auditErrTokenExpired
	case errors.Is(err, session.ErrInvalidFormat),
		errors.Is(err, session.ErrInvalidSignature):
		return auditErrInvalidToken
	case errors.Is(err, refresh.ErrTokenNotFound),
		errors.Is(err, refresh.ErrTokenExpired),
		errors.Is(err, refresh.ErrTokenRevoked),
		errors.Is(err, refresh.ErrTokenInvalid):
		return auditErrRefreshInvalid
	case errors.Is(err, tenant.ErrTenantNotFound):
		return auditErrTenantNotFound
	case errors.Is(err, tenant.ErrTenantInactive):
		return auditErrTenantInactive
	case errors.Is(err, tenant.ErrTenantContextMissing):
		return auditErrTenantMissing
	case errors.Is(err, tenant.ErrTenantContextRequired):
		return auditErrTenantRequired
	case errors.Is(err, tenant.ErrIsolationViolation):
		return auditErrIsolation
	case errors.Is(err, tenant.ErrInvalidCallerType):
		return auditErrCallerType
	case errors.Is(err, tenant.ErrTenantMismatch):
		return auditErrTenantMismatch
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrOriginRejected):
		return auditErrOrigin
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		return auditErrRateLimited
	case errors.Is(err, ErrSessionIssue):
		return auditErrSessionIssue
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, tenant.ErrLookupUnavailable),
		errors.Is(err, refresh.ErrRepositoryUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
