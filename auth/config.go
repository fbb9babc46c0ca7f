package auth

import (
	"fmt"

	"github.com/kbukum/invoicer/auth/jwt"
	"github.com/kbukum/invoicer/auth/password"
)

// DefaultRole is assigned to every identity created through signup.
const DefaultRole = "ROLE_USER"

// Config holds all authentication configuration.
// It composes subpackage configs for loading from YAML/env via mapstructure.
type Config struct {
	// DefaultRole is the role granted on signup (default: ROLE_USER).
	DefaultRole string `mapstructure:"default_role"`

	// JWT configures the token codec.
	JWT jwt.Config `mapstructure:"jwt"`

	// Password configures password hashing.
	Password password.Config `mapstructure:"password"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.DefaultRole == "" {
		c.DefaultRole = DefaultRole
	}
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
}

// Validate checks all sub-configurations.
func (c *Config) Validate() error {
	if c.DefaultRole == "" {
		return fmt.Errorf("auth: default_role is required")
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
// Example: "JWT(HS256) TTL=1h0m0s password=bcrypt role=ROLE_USER"
func (c *Config) Describe() string {
	line := fmt.Sprintf("JWT(%s) TTL=%s password=%s role=%s",
		c.JWT.Method, c.JWT.AccessTokenTTL, c.Password.Algorithm, c.DefaultRole)
	if c.JWT.Secret == "" {
		line += " key=ephemeral"
	}
	return line
}
