package refresh

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/session"
)

// Record is the persisted form of a refresh token.
type Record struct {
	ID             string
	TokenHash      string
	TokenEncrypted string
	UserID         string
	UserType       session.UserType
	TenantID       string
	ExpiresAt      time.Time
	Revoked        bool
	RevokedAt      *time.Time
	LastUsedAt     *time.Time
	CreatedAt      time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}

// Principal is what a valid refresh token proves.
type Principal struct {
	RecordID  string
	UserID    string
	UserType  session.UserType
	TenantID  string
	ExpiresAt time.Time
}

// Issued is returned by Store.Issue. Token is the only copy of the plaintext.
type Issued struct {
	Token     string
	RecordID  string
	ExpiresAt time.Time
}

// Repository persists refresh records. Implementations must be safe for
// concurrent use and must return ErrRecordNotFound for unknown hashes.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	FindByHash(ctx context.Context, tokenHash string) (*Record, error)
	// MarkRevoked revokes the non-revoked record for tokenHash and reports
	// how many records changed.
	MarkRevoked(ctx context.Context, tokenHash string, at time.Time) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string, userType session.UserType, at time.Time) (int64, error)
	Touch(ctx context.Context, tokenHash string, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
