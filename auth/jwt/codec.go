package jwt

import (
	"fmt"
	"slices"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// registeredClaims are never taken from caller-supplied extra claims.
var registeredClaims = map[string]bool{
	"sub": true, "iat": true, "exp": true, "nbf": true, "iss": true, "aud": true, "jti": true,
}

// Token is an issued bearer token.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TTL       time.Duration
}

// Codec issues bearer tokens for a subject and checks them on later requests.
type Codec struct {
	svc *Service[gojwt.MapClaims]
}

// NewCodec creates a Codec from the JWT configuration.
func NewCodec(cfg *Config, opts ...Option) (*Codec, error) {
	svc, err := NewService(cfg, func() gojwt.MapClaims { return gojwt.MapClaims{} }, opts...)
	if err != nil {
		return nil, err
	}
	return &Codec{svc: svc}, nil
}

// TTL returns the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration { return c.svc.cfg.AccessTokenTTL }

// Ephemeral reports whether tokens are signed with a per-process random key.
func (c *Codec) Ephemeral() bool { return c.svc.Ephemeral() }

// Issue signs a token for subject with iat = now and exp = now + TTL.
// Extra claims are copied into the payload; registered claim names are ignored.
func (c *Codec) Issue(subject string, extra map[string]any) (Token, error) {
	if subject == "" {
		return Token{}, fmt.Errorf("jwt: subject is required")
	}

	now := c.svc.now()
	ttl := c.svc.cfg.AccessTokenTTL
	iat := gojwt.NewNumericDate(now)
	exp := gojwt.NewNumericDate(now.Add(ttl))

	claims := gojwt.MapClaims{}
	for k, v := range extra {
		if !registeredClaims[k] {
			claims[k] = v
		}
	}
	claims["sub"] = subject
	claims["iat"] = iat
	claims["exp"] = exp
	if c.svc.cfg.Issuer != "" {
		claims["iss"] = c.svc.cfg.Issuer
	}
	if len(c.svc.cfg.Audience) > 0 {
		claims["aud"] = c.svc.cfg.Audience
	}

	signed, err := c.svc.Sign(claims)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, IssuedAt: iat.Time, ExpiresAt: exp.Time, TTL: ttl}, nil
}

// verified parses token without time checks and enforces the configured
// issuer and audience.
func (c *Codec) verified(token string) (gojwt.MapClaims, error) {
	claims, err := c.svc.ParseSignature(token)
	if err != nil {
		return nil, err
	}
	if iss := c.svc.cfg.Issuer; iss != "" {
		if got, _ := claims.GetIssuer(); got != iss {
			return nil, fmt.Errorf("%w: issuer %q not accepted", ErrTokenInvalid, got)
		}
	}
	if want := c.svc.cfg.Audience; len(want) > 0 {
		got, _ := claims.GetAudience()
		if !slices.ContainsFunc(got, func(a string) bool { return slices.Contains(want, a) }) {
			return nil, fmt.Errorf("%w: audience %v not accepted", ErrTokenInvalid, []string(got))
		}
	}
	return claims, nil
}

// DecodeSubject verifies the token signature, structure, issuer and audience
// and returns its subject. Expiry is not considered. Failures wrap
// ErrTokenInvalid.
func (c *Codec) DecodeSubject(token string) (string, error) {
	claims, err := c.verified(token)
	if err != nil {
		return "", err
	}
	return subjectOf(claims)
}

// IsValid reports whether token belongs to subject and has not expired.
// A token whose expiry equals the current time is expired. Expiry yields
// false with a nil error; signature, structure, issuer or audience failures
// are errors.
func (c *Codec) IsValid(token, subject string) (bool, error) {
	claims, err := c.verified(token)
	if err != nil {
		return false, err
	}
	sub, err := subjectOf(claims)
	if err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if exp == nil {
		return false, nil
	}
	return sub == subject && exp.After(c.svc.now()), nil
}

// Validate fully validates token and returns its claims. Expired tokens yield
// ErrTokenExpired; any other failure wraps ErrTokenInvalid.
func (c *Codec) Validate(token string) (gojwt.MapClaims, error) {
	claims, err := c.svc.Parse(token)
	if err != nil {
		return nil, err
	}
	if _, err := subjectOf(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func subjectOf(claims gojwt.MapClaims) (string, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return sub, nil
}
