package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGuard/logging"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/vault"
)

const (
	// DefaultTTL is the lifetime of a refresh token.
	DefaultTTL = 7 * 24 * time.Hour

	tokenBytes = 32
)

// Option customizes a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for degraded validations.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store applies refresh-token policy on top of a Repository.
type Store struct {
	repo   Repository
	vault  *vault.Vault
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

// NewStore returns a Store persisting through repo and encrypting audit
// copies with v.
func NewStore(repo Repository, v *vault.Vault, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		vault:  v,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured token lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Issue creates a token for the principal and returns its plaintext.
func (s *Store) Issue(ctx context.Context, userID string, userType session.UserType, tenantID string) (Issued, error) {
	if userID == "" || !userType.Valid() {
		return Issued{}, errors.New("refresh: invalid principal")
	}
	if userType == session.UserTypeTenantUser && tenantID == "" {
		return Issued{}, session.ErrMissingTenant
	}

	token, err := vault.GenerateSecureToken(tokenBytes)
	if err != nil {
		return Issued{}, err
	}
	encrypted, err := s.vault.EncryptString(token)
	if err != nil {
		return Issued{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Issued{}, fmt.Errorf("refresh: generate record id: %w", err)
	}

	now := s.now().UTC()
	rec := &Record{
		ID:             id.String(),
		TokenHash:      vault.Hash(token),
		TokenEncrypted: encrypted,
		UserID:         userID,
		UserType:       userType,
		TenantID:       tenantID,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}
	if userType == session.UserTypeSuperAdmin {
		rec.TenantID = ""
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return Issued{}, err
	}

	return Issued{Token: token, RecordID: rec.ID, ExpiresAt: rec.ExpiresAt}, nil
}

// Validate resolves token to its principal and records the use.
//
// Repository failures are logged and reported as ErrTokenInvalid.
func (s *Store) Validate(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrTokenNotFound
	}
	hash := vault.Hash(token)

	rec, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Principal{}, ErrTokenNotFound
		}
		s.logger.Errorw("refresh token lookup failed", "error", err)
		return Principal{}, ErrTokenInvalid
	}

	now := s.now().UTC()
	if rec.Expired(now) {
		if !rec.Revoked {
			if _, err := s.repo.MarkRevoked(ctx, hash, now); err != nil {
				s.logger.Errorw("revoking expired refresh token failed", "record_id", rec.ID, "error", err)
			}
		}
		return Principal{}, ErrTokenExpired
	}
	if rec.Revoked {
		return Principal{}, ErrTokenRevoked
	}

	if err := s.repo.Touch(ctx, hash, now); err != nil {
		s.logger.Errorw("refresh token touch failed", "record_id", rec.ID, "error", err)
		return Principal{}, ErrTokenInvalid
	}

	return Principal{
		RecordID:  rec.ID,
		UserID:    rec.UserID,
		UserType:  rec.UserType,
		TenantID:  rec.TenantID,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Revoke marks the record for token revoked. Unknown or already revoked
// tokens are not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := s.repo.MarkRevoked(ctx, vault.Hash(token), s.now().UTC())
	return err
}

// Consume revokes token for rotation. It fails with ErrTokenRevoked when no
// live record changed, so of two concurrent rotations only one proceeds.
func (s *Store) Consume(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenNotFound
	}
	n, err := s.repo.MarkRevoked(ctx, vault.Hash(token), s.now().UTC())
	if err != nil {
		s.logger.Errorw("refresh token consume failed", "error", err)
		return ErrTokenInvalid
	}
	if n == 0 {
		return ErrTokenRevoked
	}
	return nil
}

// RevokeAll revokes every live record of the principal and returns how many
// changed.
func (s *Store) RevokeAll(ctx context.Context, userID string, userType session.UserType) (int64, error) {
	return s.repo.RevokeAllForUser(ctx, userID, userType, s.now().UTC())
}

// SweepExpired deletes records past expiry. It is meant for periodic jobs,
// not the request path.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}
