package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/session"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalidInput
	LoginFailureLookup
	LoginFailureInvalidCredentials
	LoginFailureInactive
	LoginFailureTenantMissing
	LoginFailureIssueSession
	LoginFailureIssueRefresh
)

// LoginInput is the credential pair plus the caller population it targets.
// An empty UserType accepts either population.
type LoginInput struct {
	Identifier string
	Password   string
	UserType   session.UserType
}

// LoginResult carries either the issued tokens or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Caller  CallerRecord
	Tokens  Tokens
	// Rehashed is set when the stored hash was upgraded.
	Rehashed bool
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Callers     CallerLookup
	Verify      func(password, encoded string) (bool, error)
	DummyVerify func(password string)
	NeedsRehash func(encoded string) bool
	// Rehash stores a new hash for the caller. Optional; failures are only warned.
	Rehash func(ctx context.Context, callerID, password string) error
	Issuer Issuer
	Warn   func(msg string, kv ...any)
}

// RunLogin checks credentials and issues a session and refresh token.
//
// Unknown identifiers, type mismatches and wrong passwords are all reported as
// LoginFailureInvalidCredentials after the same hashing work.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) LoginResult {
	identifier := normalizeIdentifier(in.Identifier)
	if identifier == "" || in.Password == "" {
		return LoginResult{Failure: LoginFailureInvalidInput}
	}

	rec, err := deps.Callers.ByIdentifier(ctx, identifier, in.UserType)
	if err != nil {
		if deps.Callers.NotFound != nil && errors.Is(err, deps.Callers.NotFound) {
			deps.DummyVerify(in.Password)
			return LoginResult{Failure: LoginFailureInvalidCredentials}
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	ok, err := deps.Verify(in.Password, rec.PasswordHash)
	if err != nil {
		warn(deps.Warn, "goGuard: stored password hash unreadable", "caller_id", rec.ID, "error", err)
		return LoginResult{Failure: LoginFailureInvalidCredentials, Caller: rec}
	}
	if !ok || (in.UserType != "" && rec.UserType != in.UserType) {
		return LoginResult{Failure: LoginFailureInvalidCredentials, Caller: rec}
	}

	if !rec.Active {
		return LoginResult{Failure: LoginFailureInactive, Caller: rec}
	}
	if rec.UserType == session.UserTypeTenantUser && rec.TenantID == "" {
		return LoginResult{Failure: LoginFailureTenantMissing, Err: session.ErrMissingTenant, Caller: rec}
	}

	res := LoginResult{Caller: rec}
	if deps.Rehash != nil && deps.NeedsRehash != nil && deps.NeedsRehash(rec.PasswordHash) {
		if err := deps.Rehash(ctx, rec.ID, in.Password); err != nil {
			warn(deps.Warn, "goGuard: password rehash failed", "caller_id", rec.ID, "error", err)
		} else {
			res.Rehashed = true
		}
	}

	tokens, sessionFailed, err := issuePair(ctx, rec, ClaimsFor(rec, deps.Issuer.Now()), deps.Issuer)
	if err != nil {
		res.Err = err
		res.Failure = LoginFailureIssueRefresh
		if sessionFailed {
			res.Failure = LoginFailureIssueSession
		}
		return res
	}

	res.Tokens = tokens
	return res
}

func warn(fn func(string, ...any), msg string, kv ...any) {
	if fn != nil {
		fn(msg, kv...)
	}
}
