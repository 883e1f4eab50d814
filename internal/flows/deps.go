package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
)

// CallerRecord is the flow-local view of a stored caller.
type CallerRecord struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	UserType     session.UserType
	TenantID     string
	TenantSlug   string
	Active       bool
}

// CallerLookup loads callers from the host's store.
type CallerLookup struct {
	ByIdentifier func(ctx context.Context, identifier string, userType session.UserType) (CallerRecord, error)
	ByID         func(ctx context.Context, id string, userType session.UserType) (CallerRecord, error)
	// NotFound is the provider's sentinel for an unknown caller.
	NotFound error
}

// Issuer signs session tokens and issues refresh tokens.
type Issuer struct {
	SignSession  func(session.Claims) (string, error)
	SessionTTL   time.Duration
	IssueRefresh func(ctx context.Context, userID string, userType session.UserType, tenantID string) (refresh.Issued, error)
	Now          func() time.Time
}

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Login        LoginDeps
	Refresh      RefreshDeps
	Logout       LogoutDeps
	Authenticate AuthenticateDeps
}

// Tokens is a freshly issued session and refresh token pair.
type Tokens struct {
	SessionToken     string
	SessionExpiresAt time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// ClaimsFor builds session claims for rec. Tenant fields are only carried for
// tenant users.
func ClaimsFor(rec CallerRecord, loginTime time.Time) session.Claims {
	c := session.Claims{
		SubjectID: rec.ID,
		Email:     rec.Email,
		Name:      rec.Name,
		Role:      rec.Role,
		UserType:  rec.UserType,
		LoginTime: loginTime.UTC().Format(time.RFC3339),
	}
	if rec.UserType == session.UserTypeTenantUser {
		c.TenantID = rec.TenantID
		c.TenantSlug = rec.TenantSlug
	}
	return c
}

// issuePair signs a session for claims and issues a refresh token for rec.
// It reports which half failed through the returned flags.
func issuePair(ctx context.Context, rec CallerRecord, claims session.Claims, iss Issuer) (Tokens, bool, error) {
	now := iss.Now()

	token, err := iss.SignSession(claims)
	if err != nil {
		return Tokens{}, true, err
	}

	issued, err := iss.IssueRefresh(ctx, rec.ID, rec.UserType, claims.TenantID)
	if err != nil {
		return Tokens{}, false, err
	}

	return Tokens{
		SessionToken:     token,
		SessionExpiresAt: now.Add(iss.SessionTTL),
		RefreshToken:     issued.Token,
		RefreshExpiresAt: issued.ExpiresAt,
	}, false, nil
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
