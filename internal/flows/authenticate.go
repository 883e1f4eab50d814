package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/session"
)

// AuthenticateFailureKind classifies session verification failures.
type AuthenticateFailureKind int

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureMissing
	AuthenticateFailureInvalid
	AuthenticateFailureExpired
	AuthenticateFailureLookup
	AuthenticateFailureInactive
)

// AuthenticateResult carries the verified claims or a classified failure.
type AuthenticateResult struct {
	Failure AuthenticateFailureKind
	Err     error
	Claims  *session.Claims
}

// AuthenticateDeps captures session verification dependencies.
type AuthenticateDeps struct {
	Verify func(token string) (*session.Claims, error)
	// CheckActive reloads the caller on every request and rejects inactive ones.
	CheckActive bool
	Callers     CallerLookup
}

// RunAuthenticate verifies token and optionally confirms the caller is still active.
func RunAuthenticate(ctx context.Context, token string, deps AuthenticateDeps) AuthenticateResult {
	claims, err := deps.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrMissingToken):
			return AuthenticateResult{Failure: AuthenticateFailureMissing, Err: err}
		case errors.Is(err, session.ErrExpiredToken):
			return AuthenticateResult{Failure: AuthenticateFailureExpired, Err: err}
		default:
			return AuthenticateResult{Failure: AuthenticateFailureInvalid, Err: err}
		}
	}

	if !deps.CheckActive || deps.Callers.ByID == nil {
		return AuthenticateResult{Claims: claims}
	}

	rec, err := deps.Callers.ByID(ctx, claims.SubjectID, claims.UserType)
	if err != nil {
		if deps.Callers.NotFound != nil && errors.Is(err, deps.Callers.NotFound) {
			return AuthenticateResult{Failure: AuthenticateFailureInactive, Claims: claims}
		}
		return AuthenticateResult{Failure: AuthenticateFailureLookup, Err: err, Claims: claims}
	}
	if !rec.Active || (rec.UserType == session.UserTypeTenantUser && rec.TenantID != claims.TenantID) {
		return AuthenticateResult{Failure: AuthenticateFailureInactive, Claims: claims}
	}
	return AuthenticateResult{Claims: claims}
}
