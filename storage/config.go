package storage

import (
	"cmp"
	"errors"
	"fmt"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// DefaultMaxFileSize caps uploads when max_file_size is unset.
const DefaultMaxFileSize int64 = 5 << 20

// Config is the storage section. Only the fields of the selected provider
// are read.
type Config struct {
	Provider string `mapstructure:"provider" json:"provider"`

	// local
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// s3. Without keys the default AWS credential chain is used. Endpoint
	// points at an S3-compatible service and implies path-style URLs.
	Bucket         string `mapstructure:"bucket" json:"bucket"`
	Region         string `mapstructure:"region" json:"region"`
	Endpoint       string `mapstructure:"endpoint" json:"endpoint"`
	AccessKey      string `mapstructure:"access_key" json:"access_key"`
	SecretKey      string `mapstructure:"secret_key" json:"-"`
	ForcePathStyle bool   `mapstructure:"force_path_style" json:"force_path_style"`

	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" json:"max_file_size"`
}

func (c *Config) ApplyDefaults() {
	c.Provider = cmp.Or(c.Provider, ProviderLocal)
	c.BasePath = cmp.Or(c.BasePath, "data/storage")
	c.Region = cmp.Or(c.Region, "us-east-1")
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
}

func (c *Config) Validate() error {
	var errs []error
	missing := func(field, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("storage: %s is required for provider %s", field, c.Provider))
		}
	}
	switch c.Provider {
	case ProviderLocal:
		missing("base_path", c.BasePath)
	case ProviderS3:
		missing("bucket", c.Bucket)
		missing("region", c.Region)
		if (c.AccessKey == "") != (c.SecretKey == "") {
			errs = append(errs, errors.New("storage: access_key and secret_key go together"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unsupported provider %q", c.Provider))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("storage: max_file_size must be positive"))
	}
	return errors.Join(errs...)
}
