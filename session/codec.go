package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goGuard/vault"
)

const (
	// DefaultTTL is the lifetime of a session token.
	DefaultTTL = 30 * time.Minute
	// MinSecretLength mirrors the vault requirement for the shared master secret.
	MinSecretLength = vault.MinSecretLength

	jtiBytes = 16
)

// Option customizes a Codec.
type Option func(*Codec)

// WithTTL overrides DefaultTTL for Sign.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec signs and verifies session tokens with a single HS512 secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec returns a Codec for secret. Secrets shorter than MinSecretLength
// fail with ErrConfig.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: secret must be at least %d characters", ErrConfig, MinSecretLength)
	}

	c := &Codec{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)
	return c, nil
}

// TTL returns the lifetime applied by Sign.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Sign issues a token for claims using the configured TTL.
func (c *Codec) Sign(claims Claims) (string, error) {
	return c.SignWithTTL(claims, c.ttl)
}

// SignWithTTL issues a token for claims that expires after ttl. Any
// registered claims on the input are replaced.
func (c *Codec) SignWithTTL(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("session: ttl must be positive")
	}
	if !claims.UserType.Valid() {
		return "", ErrInvalidUserType
	}
	if claims.UserType == UserTypeTenantUser && claims.TenantID == "" {
		return "", ErrMissingTenant
	}

	jti, err := vault.GenerateSecureToken(jtiBytes)
	if err != nil {
		return "", err
	}

	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
}

// Verify authenticates token and returns its claims.
//
// Checks run in a fixed order: segment count, signature, claims shape,
// expiry. The signature is always checked before any claim is decoded.
func (c *Codec) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidFormat
	}

	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if err := jwt.SigningMethodHS512.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return nil, ErrInvalidSignature
	}

	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if claims.ID == "" || !claims.UserType.Valid() {
		return nil, ErrInvalidFormat
	}
	if claims.UserType == UserTypeTenantUser && claims.TenantID == "" {
		return nil, ErrInvalidFormat
	}

	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	return c.secret, nil
}
