package config

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kbukum/invoicer/logger"
)

// Environments lists the accepted values of environment.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields shared by every service. Application
// configs embed it squashed, which promotes GetServiceConfig:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Database database.Config `yaml:"database" mapstructure:"database"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults turns debug on in development and tags log lines with the
// service name unless logging names one itself.
func (c *ServiceConfig) ApplyDefaults() {
	c.Environment = cmp.Or(c.Environment, "development")
	c.Debug = c.Debug || c.Environment == "development"
	c.Logging.ServiceName = cmp.Or(c.Logging.ServiceName, c.Name)
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("config.name is required")
	case !slices.Contains(Environments, c.Environment):
		return fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

func (c *ServiceConfig) IsProduction() bool { return c.Environment == "production" }
