package jwt

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names an HMAC algorithm. Asymmetric keys are not supported.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

var methods = map[SigningMethod]*gojwt.SigningMethodHMAC{
	HS256: gojwt.SigningMethodHS256,
	HS384: gojwt.SigningMethodHS384,
	HS512: gojwt.SigningMethodHS512,
}

// DefaultAccessTokenTTL is one hour.
const DefaultAccessTokenTTL = 3_600_000 * time.Millisecond

// MinSecretLength is in bytes.
const MinSecretLength = 32

type Config struct {
	// Secret signs tokens. Left empty, a random key is drawn at start and
	// tokens do not survive a restart.
	Secret string        `yaml:"secret" mapstructure:"secret"`
	Method SigningMethod `yaml:"method" mapstructure:"method"`

	// Issuer and Audience are stamped on issued tokens and required of
	// verified ones when set.
	Issuer   string   `yaml:"issuer" mapstructure:"issuer"`
	Audience []string `yaml:"audience" mapstructure:"audience"`

	AccessTokenTTL time.Duration `yaml:"access_token_ttl" mapstructure:"access_token_ttl"`
}

func (c *Config) ApplyDefaults() {
	c.Method = cmp.Or(c.Method, HS256)
	c.AccessTokenTTL = cmp.Or(c.AccessTokenTTL, DefaultAccessTokenTTL)
}

func (c *Config) Validate() error {
	var errs []error
	if _, ok := methods[c.Method]; !ok {
		errs = append(errs, fmt.Errorf("jwt: unsupported signing method %q", c.Method))
	}
	if c.Secret != "" && len(c.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("jwt: secret must be at least %d bytes", MinSecretLength))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("jwt: access_token_ttl must be positive"))
	}
	if slices.Contains(c.Audience, "") {
		errs = append(errs, errors.New("jwt: audience entries must not be empty"))
	}
	return errors.Join(errs...)
}

// signingMethod falls back to HS256 for a config that skipped Validate.
func (c *Config) signingMethod() gojwt.SigningMethod {
	if m, ok := methods[c.Method]; ok {
		return m
	}
	return gojwt.SigningMethodHS256
}
