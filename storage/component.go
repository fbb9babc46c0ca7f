package storage

import (
	"context"
	"io"
	"strings"
	"sync/atomic"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/util"
)

// Component opens the configured backend on Start.
type Component struct {
	cfg     Config
	log     *logger.Logger
	backend atomic.Pointer[Storage]
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

// Storage is nil before Start and after Stop.
func (c *Component) Storage() Storage {
	if s := c.backend.Load(); s != nil {
		return *s
	}
	return nil
}

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(ctx context.Context) error {
	s, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.backend.Store(&s)
	c.log.Info("Storage ready", map[string]interface{}{"provider": c.cfg.Provider})
	return nil
}

// Stop closes backends that hold OS resources.
func (c *Component) Stop(context.Context) error {
	old := c.backend.Swap(nil)
	if old == nil {
		return nil
	}
	if closer, ok := (*old).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	s := c.Storage()
	if s == nil {
		h.Message = "not started"
		return h
	}
	if p, ok := s.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			h.Message = err.Error()
			return h
		}
	}
	h.Status = component.StatusHealthy
	return h
}

func (c *Component) Describe() component.Description {
	parts := []string{"provider=" + c.cfg.Provider}
	switch c.cfg.Provider {
	case ProviderS3:
		parts = append(parts, "bucket="+c.cfg.Bucket, "region="+c.cfg.Region)
		if c.cfg.Endpoint != "" {
			parts = append(parts, "endpoint="+c.cfg.Endpoint)
		}
		if c.cfg.AccessKey != "" {
			parts = append(parts, "key="+util.MaskSecret(c.cfg.AccessKey, 4))
		}
	case ProviderLocal:
		parts = append(parts, "path="+c.cfg.BasePath)
	}
	return component.Description{Name: "Storage", Type: "storage", Details: strings.Join(parts, " ")}
}
