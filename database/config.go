package database

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"
)

var gormLevels = []string{"silent", "error", "warn", "info"}

// Config is the database section. Durations accept Go syntax such as "30m".
type Config struct {
	// DSN is a file path or file: URI. Foreign keys are switched on unless
	// the DSN says otherwise.
	DSN string `mapstructure:"dsn"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// MaxRetries bounds the connection attempts made by Start.
	MaxRetries int `mapstructure:"max_retries"`

	// Migrate applies pending schema migrations on Start.
	Migrate bool `mapstructure:"migrate"`

	LogLevel  string        `mapstructure:"log_level"`
	SlowQuery time.Duration `mapstructure:"slow_query_threshold"`
}

func (c *Config) ApplyDefaults() {
	c.DSN = cmp.Or(c.DSN, "invoicer.db")
	c.MaxOpenConns = cmp.Or(c.MaxOpenConns, 10)
	c.MaxIdleConns = cmp.Or(c.MaxIdleConns, min(5, c.MaxOpenConns))
	c.ConnMaxLifetime = cmp.Or(c.ConnMaxLifetime, time.Hour)
	c.ConnMaxIdleTime = cmp.Or(c.ConnMaxIdleTime, 5*time.Minute)
	c.MaxRetries = cmp.Or(c.MaxRetries, 5)
	c.LogLevel = cmp.Or(c.LogLevel, "warn")
	c.SlowQuery = cmp.Or(c.SlowQuery, 200*time.Millisecond)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("database: "+format, args...))
		}
	}
	check(c.DSN != "", "dsn is required")
	check(c.MaxOpenConns > 0, "max_open_conns must be positive")
	check(c.MaxIdleConns > 0 && c.MaxIdleConns <= c.MaxOpenConns,
		"max_idle_conns %d must be in 1..max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	check(c.ConnMaxLifetime >= 0, "conn_max_lifetime must not be negative")
	check(c.ConnMaxIdleTime >= 0, "conn_max_idle_time must not be negative")
	check(c.SlowQuery >= 0, "slow_query_threshold must not be negative")
	check(c.MaxRetries > 0, "max_retries must be positive")
	check(slices.Contains(gormLevels, c.LogLevel), "log_level %q is not one of %v", c.LogLevel, gormLevels)
	return errors.Join(errs...)
}
