package redis

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key the service writes.
const DefaultKeyPrefix = "invoicer:"

// Config is the redis section. With Enabled false the component is not
// registered and nothing else here is read.
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c *Config) ApplyDefaults() {
	c.Addr = cmp.Or(c.Addr, "localhost:6379")
	c.PoolSize = cmp.Or(c.PoolSize, 10)
	c.DialTimeout = cmp.Or(c.DialTimeout, 5*time.Second)
	c.ReadTimeout = cmp.Or(c.ReadTimeout, 3*time.Second)
	c.WriteTimeout = cmp.Or(c.WriteTimeout, 3*time.Second)
	c.KeyPrefix = cmp.Or(c.KeyPrefix, DefaultKeyPrefix)
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if c.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("redis.pool_size %d must be positive", c.PoolSize))
	}
	if c.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db %d is negative", c.DB))
	}
	if min(c.DialTimeout, c.ReadTimeout, c.WriteTimeout) < 0 {
		errs = append(errs, errors.New("redis timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) options() *goredis.Options {
	return &goredis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}
