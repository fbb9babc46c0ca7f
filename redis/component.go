package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/logger"
)

// Component dials Redis on Start and fails the start if it cannot ping.
type Component struct {
	cfg Config
	log *logger.Logger
	rdb *goredis.Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client is nil until Start succeeds.
func (c *Component) Client() *goredis.Client { return c.rdb }

func (c *Component) Name() string { return "redis" }

func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	rdb := goredis.NewClient(c.cfg.options())
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis: ping %s: %w", c.cfg.Addr, err)
	}
	c.rdb = rdb
	c.log.Info("Redis connected", map[string]interface{}{"addr": c.cfg.Addr, "db": c.cfg.DB})
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.rdb == nil {
		return nil
	}
	rdb := c.rdb
	c.rdb = nil
	return rdb.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	switch {
	case c.rdb == nil:
		h.Message = "not connected"
	case c.rdb.Ping(ctx).Err() != nil:
		h.Message = "ping failed"
	default:
		h.Status = component.StatusHealthy
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Redis",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d pool=%d prefix=%s", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize, c.cfg.KeyPrefix),
	}
}
