package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = strings.Repeat("s", MinSecretLength)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func tenantClaims() Claims {
	return Claims{
		SubjectID:  "user-1",
		Email:      "owner@acme.test",
		Name:       "Owner",
		Role:       "OWNER",
		TenantID:   "tenant-a",
		TenantSlug: "acme",
		UserType:   UserTypeTenantUser,
		LoginTime:  "2026-01-02T03:04:05Z",
	}
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewCodec(strings.Repeat("s", MinSecretLength-1)); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_800_000_000, 0)}
	c := newTestCodec(t, clock)

	in := tenantClaims()
	token, err := c.Sign(in)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	got, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}

	if got.SubjectID != in.SubjectID || got.Email != in.Email || got.Name != in.Name ||
		got.Role != in.Role || got.TenantID != in.TenantID || got.TenantSlug != in.TenantSlug ||
		got.UserType != in.UserType || got.LoginTime != in.LoginTime {
		t.Fatalf("claims mismatch: got %+v want %+v", got, in)
	}
	if got.IssuedAt == nil || !got.IssuedAt.Time.Equal(clock.now) {
		t.Fatalf("unexpected iat %v", got.IssuedAt)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Time.Equal(clock.now.Add(DefaultTTL)) {
		t.Fatalf("unexpected exp %v", got.ExpiresAt)
	}
	if len(got.ID) != 2*jtiBytes {
		t.Fatalf("unexpected jti %q", got.ID)
	}
}

func TestSignProducesHS512Header(t *testing.T) {
	c := newTestCodec(t, &fakeClock{now: time.Now()})

	token, err := c.Sign(tenantClaims())
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	// base64url of {"alg":"HS512","typ":"JWT"}
	if !strings.HasPrefix(token, "eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9.") {
		t.Fatalf("unexpected header segment in %s", token)
	}
}

func TestSignRejectsTenantUserWithoutTenant(t *testing.T) {
	c := newTestCodec(t, &fakeClock{now: time.Now()})

	claims := tenantClaims()
	claims.TenantID = ""
	if _, err := c.Sign(claims); !errors.Is(err, ErrMissingTenant) {
		t.Fatalf("expected ErrMissingTenant, got %v", err)
	}

	claims.UserType = "GUEST"
	if _, err := c.Sign(claims); !errors.Is(err, ErrInvalidUserType) {
		t.Fatalf("expected ErrInvalidUserType, got %v", err)
	}
}

func TestSuperAdminClaimsMayOmitTenant(t *testing.T) {
	c := newTestCodec(t, &fakeClock{now: time.Now()})

	token, err := c.Sign(Claims{SubjectID: "root", Email: "ops@platform.test", Role: "SUPER_ADMIN", UserType: UserTypeSuperAdmin})
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	got, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got.TenantID != "" {
		t.Fatalf("expected no tenant, got %q", got.TenantID)
	}
}

func TestVerifyRejectsEverySignatureMutation(t *testing.T) {
	c := newTestCodec(t, &fakeClock{now: time.Now()})

	token, err := c.Sign(tenantClaims())
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	sigStart := strings.LastIndex(token, ".") + 1

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := sigStart; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		for _, candidate := range []byte{replacement, '*', alphabet[(strings.IndexByte(alphabet, token[i])+17)%len(alphabet)]} {
			mutated := token[:i] + string(candidate) + token[i+1:]
			if mutated == token {
				continue
			}
			if _, err := c.Verify(mutated); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("position %d (%q): expected ErrInvalidSignature, got %v", i, candidate, err)
			}
		}
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := newTestCodec(t, clock)
	other, err := NewCodec(strings.Repeat("o", MinSecretLength), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}

	token, err := other.Sign(tenantClaims())
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	if _, err := c.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_800_000_000, 0)}
	c := newTestCodec(t, clock)

	token, err := c.SignWithTTL(tenantClaims(), time.Minute)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	clock.Advance(59 * time.Second)
	if _, err := c.Verify(token); err != nil {
		t.Fatalf("expected token valid before exp, got %v", err)
	}

	clock.Advance(time.Second)
	if _, err := c.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken at exp, got %v", err)
	}

	clock.Advance(time.Hour)
	if _, err := c.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken after exp, got %v", err)
	}
}

func TestVerifyFormatErrors(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := newTestCodec(t, clock)

	if _, err := c.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	for _, token := range []string{"a", "a.b", "a.b.c.d"} {
		if _, err := c.Verify(token); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("%q: expected ErrInvalidFormat, got %v", token, err)
		}
	}

	sign := func(claims jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}

	noJTI := tenantClaims()
	noJTI.ExpiresAt = jwt.NewNumericDate(clock.now.Add(time.Minute))
	if _, err := c.Verify(sign(noJTI)); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("missing jti: expected ErrInvalidFormat, got %v", err)
	}

	noExp := tenantClaims()
	noExp.ID = "abc"
	if _, err := c.Verify(sign(noExp)); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("missing exp: expected ErrInvalidFormat, got %v", err)
	}

	noTenant := tenantClaims()
	noTenant.TenantID = ""
	noTenant.ID = "abc"
	noTenant.ExpiresAt = jwt.NewNumericDate(clock.now.Add(time.Minute))
	if _, err := c.Verify(sign(noTenant)); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("tenant user without tenant: expected ErrInvalidFormat, got %v", err)
	}
}

func TestVerifyChecksSignatureBeforeExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_800_000_000, 0)}
	c := newTestCodec(t, clock)

	token, err := c.SignWithTTL(tenantClaims(), time.Second)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	clock.Advance(time.Hour)

	tampered := token[:len(token)-2] + "AA"
	if tampered == token {
		tampered = token[:len(token)-2] + "BA"
	}
	if _, err := c.Verify(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}
