// Package password hashes and verifies user passwords.
//
// New hashes use the configured scheme. Verify reads the scheme from the
// stored hash itself, so rows written under bcrypt keep working after
// the service switches to argon2id and vice versa.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past this many bytes.
const bcryptMaxLength = 72

var (
	ErrMismatch = errors.New("password: invalid password")
	ErrTooShort = errors.New("password: too short")
	ErrTooLong  = errors.New("password: too long")
)

// Hasher hashes new passwords and checks candidates against stored hashes.
// Verify returns ErrMismatch for a wrong password or an unreadable hash.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// Verify checks password against a hash produced by either scheme.
func Verify(password, hash string) error {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return verifyArgon2(password, hash)
	case strings.HasPrefix(hash, "$2"):
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
			return ErrMismatch
		}
		return nil
	default:
		return ErrMismatch
	}
}

func checkLength(password string, minLen, maxLen int) error {
	if len(password) < minLen {
		return fmt.Errorf("%w: need at least %d characters", ErrTooShort, minLen)
	}
	if maxLen > 0 && len(password) > maxLen {
		return fmt.Errorf("%w: at most %d bytes", ErrTooLong, maxLen)
	}
	return nil
}

// BcryptHasher writes bcrypt hashes.
type BcryptHasher struct {
	cost      int
	minLength int
}

type BcryptOption func(*BcryptHasher)

// WithCost sets the work factor. Values outside bcrypt's range are ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

func WithMinLength(n int) BcryptOption {
	return func(h *BcryptHasher) {
		if n > 0 {
			h.minLength = n
		}
	}
}

func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: bcrypt.DefaultCost, minLength: defaultMinLength}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if err := checkLength(password, h.minLength, bcryptMaxLength); err != nil {
		return "", err
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: bcrypt: %w", err)
	}
	return string(out), nil
}

func (h *BcryptHasher) Verify(password, hash string) error { return Verify(password, hash) }

// Argon2Params are the argon2id cost settings written into every hash.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

const (
	argonSaltLen = 16
	argonKeyLen  = 32
)

// Argon2Hasher writes argon2id hashes in the PHC string format.
type Argon2Hasher struct {
	params    Argon2Params
	minLength int
}

// NewArgon2Hasher fills zero params with time=1, 64 MiB and 4 threads.
func NewArgon2Hasher(p Argon2Params, minLength int) *Argon2Hasher {
	if p.Time == 0 {
		p.Time = 1
	}
	if p.Memory == 0 {
		p.Memory = 64 * 1024
	}
	if p.Threads == 0 {
		p.Threads = 4
	}
	if minLength <= 0 {
		minLength = defaultMinLength
	}
	return &Argon2Hasher{params: p, minLength: minLength}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	if err := checkLength(password, h.minLength, 0); err != nil {
		return "", err
	}
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: salt: %w", err)
	}
	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, argonKeyLen)
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

func (h *Argon2Hasher) Verify(password, hash string) error { return Verify(password, hash) }

// verifyArgon2 recomputes the key with the params stored in hash.
func verifyArgon2(password, hash string) error {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	fields := strings.Split(hash, "$")
	if len(fields) != 6 || fields[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return ErrMismatch
	}
	var p Argon2Params
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil || p.Time == 0 || p.Threads == 0 {
		return ErrMismatch
	}
	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(fields[4])
	if err != nil {
		return ErrMismatch
	}
	want, err := b64.DecodeString(fields[5])
	if err != nil || len(want) == 0 {
		return ErrMismatch
	}
	got := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}
