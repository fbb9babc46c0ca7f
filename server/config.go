package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/invoicer/server/middleware"
)

// Config is the server section. Timeouts take Go durations ("15s").
type Config struct {
	Host            string                     `yaml:"host" mapstructure:"host"`
	Port            int                        `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration              `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration              `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration              `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration              `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodySize     string                     `yaml:"max_body_size" mapstructure:"max_body_size"` // "10MB"; "0" disables
	CORS            middleware.CORSConfig      `yaml:"cors" mapstructure:"cors"`
	AuthLimit       middleware.RateLimitConfig `yaml:"auth_rate_limit" mapstructure:"auth_rate_limit"`
}

func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	for _, d := range []struct {
		field *time.Duration
		value time.Duration
	}{
		{&c.ReadTimeout, 15 * time.Second},
		{&c.WriteTimeout, 15 * time.Second},
		{&c.IdleTimeout, time.Minute},
		{&c.ShutdownTimeout, 5 * time.Second},
	} {
		if *d.field == 0 {
			*d.field = d.value
		}
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	cors := &c.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"http://localhost:8080"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Authorization", "Content-Type"}
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Port))
	}
	if min(c.ReadTimeout, c.WriteTimeout, c.IdleTimeout, c.ShutdownTimeout) < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.AuthLimit.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("server.auth_rate_limit.requests_per_minute %d is negative", c.AuthLimit.RequestsPerMinute))
	}
	return errors.Join(errs...)
}
