// Package jwt issues and verifies HMAC-signed JSON Web Tokens.
//
// Service signs and parses any jwt.Claims type. Codec builds the bearer
// token operations used by login and the request gate on top of
// Service[jwt.MapClaims].
package jwt

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid covers malformed, tampered and wrongly signed tokens.
	ErrTokenInvalid = errors.New("jwt: invalid token")
	ErrTokenExpired = errors.New("jwt: token expired")
)

type Option func(*settings)

type settings struct{ now func() time.Time }

// WithClock replaces time.Now for issuing and checking tokens.
func WithClock(now func() time.Time) Option {
	return func(o *settings) { o.now = now }
}

// Service is immutable after NewService and safe for concurrent use.
type Service[T gojwt.Claims] struct {
	cfg       Config
	key       []byte
	ephemeral bool
	blank     func() T
	now       func() time.Time
	strict    []gojwt.ParserOption
	lenient   []gojwt.ParserOption
}

// NewService validates cfg and fixes the signing key. blank returns the
// empty claims value tokens are decoded into.
func NewService[T gojwt.Claims](cfg *Config, blank func() T, opts ...Option) (*Service[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := settings{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Service[T]{cfg: *cfg, key: []byte(cfg.Secret), blank: blank, now: o.now}
	if len(s.key) == 0 {
		s.key = []byte(rand.Text() + rand.Text())
		s.ephemeral = true
	}

	s.strict = []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{cfg.signingMethod().Alg()}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		s.strict = append(s.strict, gojwt.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audience) > 0 {
		s.strict = append(s.strict, gojwt.WithAudience(cfg.Audience...))
	}
	s.lenient = append(s.strict[:len(s.strict):len(s.strict)], gojwt.WithoutClaimsValidation())
	return s, nil
}

// Ephemeral is true when no secret was configured.
func (s *Service[T]) Ephemeral() bool { return s.ephemeral }

func (s *Service[T]) Sign(claims T) (string, error) {
	signed, err := gojwt.NewWithClaims(s.cfg.signingMethod(), claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Parse checks the signature and every registered claim.
func (s *Service[T]) Parse(token string) (T, error) { return s.parse(token, s.strict) }

// ParseSignature checks algorithm, signature and structure only, leaving
// expiry and the other claims to the caller.
func (s *Service[T]) ParseSignature(token string) (T, error) { return s.parse(token, s.lenient) }

func (s *Service[T]) parse(raw string, opts []gojwt.ParserOption) (T, error) {
	var zero T
	token, err := gojwt.ParseWithClaims(raw, s.blank(), func(*gojwt.Token) (any, error) { return s.key, nil }, opts...)
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return zero, ErrTokenExpired
	case err != nil:
		return zero, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case !token.Valid:
		return zero, ErrTokenInvalid
	}
	claims, ok := token.Claims.(T)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}
	return claims, nil
}
