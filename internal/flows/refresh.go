package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureInvalid
	RefreshFailureCallerGone
	RefreshFailureLookup
	RefreshFailureInactive
	RefreshFailureTenantChanged
	RefreshFailureRotate
	RefreshFailureIssueSession
	RefreshFailureIssueRefresh
)

// RefreshResult carries either the rotated token pair or failure metadata.
type RefreshResult struct {
	Failure   RefreshFailureKind
	Err       error
	Principal refresh.Principal
	Caller    CallerRecord
	Tokens    Tokens
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Validate func(ctx context.Context, token string) (refresh.Principal, error)
	// Consume revokes the presented token and fails if another rotation won.
	Consume  func(ctx context.Context, token string) error
	Revoke   func(ctx context.Context, token string) error
	Callers  CallerLookup
	Issuer   Issuer
	Warn     func(msg string, kv ...any)
}

// RunRefresh validates refreshToken, reloads its caller and rotates the pair.
//
// The presented token is revoked before the new pair is issued, so a failure
// after revocation forces a fresh login rather than leaving two live tokens.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing, Err: refresh.ErrTokenNotFound}
	}

	principal, err := deps.Validate(ctx, refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}

	rec, err := deps.Callers.ByID(ctx, principal.UserID, principal.UserType)
	if err != nil {
		if deps.Callers.NotFound != nil && errors.Is(err, deps.Callers.NotFound) {
			revokeQuietly(ctx, refreshToken, deps)
			return RefreshResult{Failure: RefreshFailureCallerGone, Principal: principal}
		}
		return RefreshResult{Failure: RefreshFailureLookup, Err: err, Principal: principal}
	}
	if !rec.Active {
		revokeQuietly(ctx, refreshToken, deps)
		return RefreshResult{Failure: RefreshFailureInactive, Principal: principal, Caller: rec}
	}
	if rec.UserType == session.UserTypeTenantUser && rec.TenantID != principal.TenantID {
		revokeQuietly(ctx, refreshToken, deps)
		return RefreshResult{Failure: RefreshFailureTenantChanged, Principal: principal, Caller: rec}
	}

	if err := deps.Consume(ctx, refreshToken); err != nil {
		return RefreshResult{Failure: RefreshFailureRotate, Err: err, Principal: principal, Caller: rec}
	}

	claims := ClaimsFor(rec, deps.Issuer.Now())
	tokens, sessionFailed, err := issuePair(ctx, rec, claims, deps.Issuer)
	if err != nil {
		kind := RefreshFailureIssueRefresh
		if sessionFailed {
			kind = RefreshFailureIssueSession
		}
		return RefreshResult{Failure: kind, Err: err, Principal: principal, Caller: rec}
	}

	return RefreshResult{Principal: principal, Caller: rec, Tokens: tokens}
}

func revokeQuietly(ctx context.Context, token string, deps RefreshDeps) {
	if err := deps.Revoke(ctx, token); err != nil {
		warn(deps.Warn, "goGuard: revoking stale refresh token failed", "error", err)
	}
}
