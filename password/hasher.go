package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithm             = "argon2id"
	defaultMinimum        = 10
)

var (
	// ErrInvalidParams is returned by NewHasher for weak or zero parameters.
	ErrInvalidParams = errors.New("password: invalid argon2 parameters")
	// ErrTooShort is returned by Hash when the password is below the minimum length.
	ErrTooShort = errors.New("password: too short")
	// ErrMalformedHash is returned when an encoded hash cannot be parsed.
	ErrMalformedHash = errors.New("password: malformed hash")
	// ErrUnsupportedHash is returned for a different algorithm or argon2 version.
	ErrUnsupportedHash = errors.New("password: unsupported hash")
)

// Params are the Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MinLength is the minimum password length in bytes accepted by Hash.
	MinLength int
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   defaultMinimum,
	}
}

// Validate checks p against the package minimums.
func (p Params) Validate() error {
	switch {
	case p.Memory < minMemoryKB:
		return fmt.Errorf("%w: memory must be >= %d KiB", ErrInvalidParams, minMemoryKB)
	case p.Time < 1:
		return fmt.Errorf("%w: time must be >= 1", ErrInvalidParams)
	case p.Parallelism < 1:
		return fmt.Errorf("%w: parallelism must be >= 1", ErrInvalidParams)
	case p.SaltLength < minSaltLength:
		return fmt.Errorf("%w: salt length must be >= %d", ErrInvalidParams, minSaltLength)
	case p.KeyLength < minKeyLength:
		return fmt.Errorf("%w: key length must be >= %d", ErrInvalidParams, minKeyLength)
	case p.MinLength < 0:
		return fmt.Errorf("%w: negative minimum length", ErrInvalidParams)
	}
	return nil
}

// Hasher produces and checks Argon2id PHC hashes. It is safe for concurrent use.
type Hasher struct {
	params Params
	dummy  string
}

// NewHasher validates p and returns a Hasher.
func NewHasher(p Params) (*Hasher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	h := &Hasher{params: p}

	dummy, err := h.encode(strings.Repeat("x", max(p.MinLength, defaultMinimum)))
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

// Params returns the configured parameters.
func (h *Hasher) Params() Params {
	return h.params
}

// Hash returns the PHC encoding of password. Passwords are used byte for byte,
// without Unicode normalization.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < h.params.MinLength {
		return "", fmt.Errorf("%w: minimum %d bytes", ErrTooShort, h.params.MinLength)
	}
	return h.encode(password)
}

func (h *Hasher) encode(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm, argon2.Version,
		h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. A malformed hash is an
// error, a mismatch is not.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	d, err := decode(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), d.salt, d.time, d.memory, d.parallelism, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

// DummyVerify spends the same work as Verify against a throwaway hash. Login
// calls it for unknown identifiers so response time does not reveal them.
func (h *Hasher) DummyVerify(password string) {
	_, _ = h.Verify(password, h.dummy)
}

// NeedsRehash reports whether encoded was produced with weaker parameters than
// the Hasher's.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	d, err := decode(encoded)
	if err != nil {
		return false, err
	}
	return d.memory < h.params.Memory ||
		d.time < h.params.Time ||
		d.parallelism < h.params.Parallelism ||
		uint32(len(d.key)) != h.params.KeyLength, nil
}

type decoded struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func decode(encoded string) (decoded, error) {
	var d decoded

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return d, ErrMalformedHash
	}
	if parts[1] != algorithm {
		return d, fmt.Errorf("%w: %s", ErrUnsupportedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return d, ErrMalformedHash
	}
	if version != argon2.Version {
		return d, fmt.Errorf("%w: version %d", ErrUnsupportedHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.time, &d.parallelism); err != nil {
		return d, ErrMalformedHash
	}
	if d.memory < minMemoryKB || d.time < 1 || d.parallelism < 1 {
		return d, ErrMalformedHash
	}

	var err error
	if d.salt, err = decodeSegment(parts[4]); err != nil || len(d.salt) < int(minSaltLength) {
		return d, ErrMalformedHash
	}
	if d.key, err = decodeSegment(parts[5]); err != nil || len(d.key) == 0 {
		return d, ErrMalformedHash
	}
	return d, nil
}

// decodeSegment accepts both unpadded and padded base64.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
