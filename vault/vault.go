package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinSecretLength is the minimum accepted master secret length in characters.
	MinSecretLength = 64
	// DefaultIterations is the PBKDF2 work factor applied per encryption.
	DefaultIterations = 100_000

	saltLength = 32
	nonceSize  = 16
	tagSize    = 16
	keyLength  = 32

	defaultTokenBytes = 32
)

var (
	// ErrConfig is returned when the master secret is missing or too short.
	ErrConfig = errors.New("vault: invalid configuration")
	// ErrDecryption is returned for any malformed or tampered ciphertext.
	ErrDecryption = errors.New("vault: decryption failed")
)

// Option customizes a Vault.
type Option func(*Vault)

// WithIterations overrides the PBKDF2 work factor. Tokens encrypted with one
// work factor can only be decrypted by a Vault using the same value.
func WithIterations(n int) Option {
	return func(v *Vault) {
		if n > 0 {
			v.iterations = n
		}
	}
}

// Vault encrypts and decrypts opaque values with keys derived from a single
// master secret. It is safe for concurrent use.
type Vault struct {
	master     [sha256.Size]byte
	iterations int
}

// New validates secret and returns a Vault bound to it.
func New(secret string, opts ...Option) (*Vault, error) {
	if err := ValidateSecret(secret); err != nil {
		return nil, err
	}

	v := &Vault{
		master:     sha256.Sum256([]byte(secret)),
		iterations: DefaultIterations,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// ValidateSecret reports whether secret is usable as a master secret.
func ValidateSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: master secret is not set", ErrConfig)
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("%w: master secret must be at least %d characters", ErrConfig, MinSecretLength)
	}
	return nil
}

// Encrypt seals plaintext under a freshly salted key.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("vault: read salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: read nonce: %w", err)
	}

	aead, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	// Seal appends the tag after the ciphertext; the wire layout puts it first.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, saltLength+nonceSize+tagSize+len(ct))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)

	return base64.RawURLEncoding.EncodeToString(out), nil
}

// EncryptString is Encrypt for string values.
func (v *Vault) EncryptString(plaintext string) (string, error) {
	return v.Encrypt([]byte(plaintext))
}

// Decrypt reverses Encrypt. Every failure is reported as ErrDecryption.
func (v *Vault) Decrypt(token string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed encoding", ErrDecryption)
	}
	if len(raw) < saltLength+nonceSize+tagSize {
		return nil, fmt.Errorf("%w: token too short", ErrDecryption)
	}

	salt := raw[:saltLength]
	nonce := raw[saltLength : saltLength+nonceSize]
	tag := raw[saltLength+nonceSize : saltLength+nonceSize+tagSize]
	ct := raw[saltLength+nonceSize+tagSize:]

	aead, err := v.aead(salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return plaintext, nil
}

// DecryptString is Decrypt for string values.
func (v *Vault) DecryptString(token string) (string, error) {
	plaintext, err := v.Decrypt(token)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(v.master[:], salt, v.iterations, keyLength, sha512.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("vault: init gcm: %w", err)
	}
	return aead, nil
}

// GenerateSecureToken returns byteLength random bytes hex-encoded.
// A non-positive length falls back to 32 bytes.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = defaultTokenBytes
	}
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("vault: read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the hex SHA-512 digest of value.
func Hash(value string) string {
	sum := sha512.Sum512([]byte(value))
	return hex.EncodeToString(sum[:])
}
