package observability

import (
	"cmp"
	"errors"
	"fmt"
	"time"
)

type Config struct {
	// Enabled turns on OTLP export. Disabled keeps the no-op providers.
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // OTLP/HTTP host:port
	Insecure bool   `mapstructure:"insecure"`

	// SampleRate is the share of root traces kept. Unset keeps all of
	// them; an explicit 0 keeps none.
	SampleRate *float64 `mapstructure:"sample_rate"`

	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

func (c *Config) ApplyDefaults() {
	c.Endpoint = cmp.Or(c.Endpoint, "localhost:4318")
	c.MetricInterval = cmp.Or(c.MetricInterval, 15*time.Second)
}

// Rate is SampleRate with the unset case resolved.
func (c *Config) Rate() float64 {
	if c.SampleRate == nil {
		return 1
	}
	return *c.SampleRate
}

func (c *Config) Validate() error {
	var errs []error
	if r := c.Rate(); r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("observability: sample_rate must be between 0 and 1, got %v", r))
	}
	if c.MetricInterval <= 0 {
		errs = append(errs, errors.New("observability: metric_interval must be positive"))
	}
	return errors.Join(errs...)
}
