package app

import (
	"fmt"

	"github.com/kbukum/invoicer/auth"
	"github.com/kbukum/invoicer/config"
	"github.com/kbukum/invoicer/database"
	"github.com/kbukum/invoicer/observability"
	"github.com/kbukum/invoicer/redis"
	"github.com/kbukum/invoicer/server"
	"github.com/kbukum/invoicer/storage"
)

// Config is the invoicer configuration, loaded from cmd/invoicer/config.yml
// and the environment.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "invoicer"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	if c.IsProduction() && c.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is required in production")
	}
	return nil
}
