package vault

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

var testSecret = strings.Repeat("k", MinSecretLength)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(testSecret, WithIterations(1000))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return v
}

func TestNewRejectsShortSecret(t *testing.T) {
	for _, secret := range []string{"", "short", strings.Repeat("x", MinSecretLength-1)} {
		if _, err := New(secret); !errors.Is(err, ErrConfig) {
			t.Fatalf("expected ErrConfig for %d-char secret, got %v", len(secret), err)
		}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)

	cases := []string{"", "a", "refresh-token-value", strings.Repeat("long payload ", 200), "ünïcødé ✓"}
	for _, plaintext := range cases {
		token, err := v.EncryptString(plaintext)
		if err != nil {
			t.Fatalf("Encrypt error: %v", err)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("expected url-safe unpadded token, got %q", token)
		}
		got, err := v.DecryptString(token)
		if err != nil {
			t.Fatalf("Decrypt error: %v", err)
		}
		if got != plaintext {
			t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
		}
	}
}

func TestDefaultIterationsRoundTrip(t *testing.T) {
	v, err := New(testSecret)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	token, err := v.EncryptString("default work factor")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if got, err := v.DecryptString(token); err != nil || got != "default work factor" {
		t.Fatalf("unexpected round trip result %q, %v", got, err)
	}
}

func TestEncryptIsSalted(t *testing.T) {
	v := newTestVault(t)

	a, err := v.EncryptString("same")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	b, err := v.EncryptString("same")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct ciphertexts for identical plaintexts")
	}
}

func TestDecryptRejectsCorruptedTag(t *testing.T) {
	v := newTestVault(t)

	token, err := v.EncryptString("integrity matters")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	for i := saltLength + nonceSize; i < saltLength+nonceSize+tagSize; i++ {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0x01
		got, err := v.Decrypt(base64.RawURLEncoding.EncodeToString(mutated))
		if !errors.Is(err, ErrDecryption) {
			t.Fatalf("byte %d: expected ErrDecryption, got %v", i, err)
		}
		if got != nil {
			t.Fatalf("byte %d: expected no plaintext, got %q", i, got)
		}
	}
}

func TestDecryptRejectsMalformedInput(t *testing.T) {
	v := newTestVault(t)

	cases := map[string]string{
		"empty":      "",
		"not base64": "***",
		"too short":  base64.RawURLEncoding.EncodeToString(make([]byte, saltLength+nonceSize+tagSize-1)),
	}
	for name, token := range cases {
		if _, err := v.Decrypt(token); !errors.Is(err, ErrDecryption) {
			t.Fatalf("%s: expected ErrDecryption, got %v", name, err)
		}
	}
}

func TestDecryptWithOtherSecretFails(t *testing.T) {
	v := newTestVault(t)
	other, err := New(strings.Repeat("z", MinSecretLength), WithIterations(1000))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	token, err := v.EncryptString("tenant-secret")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if _, err := other.Decrypt(token); !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption, got %v", err)
	}
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(16)
	if err != nil {
		t.Fatalf("GenerateSecureToken error: %v", err)
	}
	if len(tok) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(tok))
	}

	def, err := GenerateSecureToken(0)
	if err != nil {
		t.Fatalf("GenerateSecureToken error: %v", err)
	}
	if len(def) != 64 {
		t.Fatalf("expected default 64 hex chars, got %d", len(def))
	}
	if def == tok {
		t.Fatal("expected distinct tokens")
	}
}

func TestHash(t *testing.T) {
	h := Hash("abc")
	if len(h) != 128 {
		t.Fatalf("expected 128 hex chars, got %d", len(h))
	}
	if !strings.HasPrefix(h, "ddaf35a193617aba") {
		t.Fatalf("unexpected sha-512 digest %s", h)
	}
	if Hash("abc") != h {
		t.Fatal("expected deterministic hash")
	}
}
