package observability

import (
	"context"
	"fmt"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/logger"
)

// Component installs the OTLP providers on Start when enabled.
type Component struct {
	cfg Config
	res [3]string // service, version, environment
	log *logger.Logger
	p   *providers
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, service, version, environment string, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, res: [3]string{service, version, environment}, log: log.WithComponent("observability")}
}

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("Observability disabled, using no-op providers")
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	res, err := newResource(c.res[0], c.res[1], c.res[2])
	if err != nil {
		return fmt.Errorf("observability: resource: %w", err)
	}
	if c.p, err = install(ctx, c.cfg, res); err != nil {
		return err
	}
	c.log.Info("Observability started", logger.Fields(
		"endpoint", c.cfg.Endpoint,
		"sample_rate", c.cfg.Rate(),
		"metric_interval", c.cfg.MetricInterval.String(),
	))
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	p := c.p
	c.p = nil
	if p == nil {
		return nil
	}
	return p.shutdown(ctx)
}

func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

func (c *Component) Describe() component.Description {
	d := component.Description{Name: "Observability", Type: "otel", Details: "disabled"}
	if c.cfg.Enabled {
		d.Details = fmt.Sprintf("otlp=%s sample=%.2f", c.cfg.Endpoint, c.cfg.Rate())
	}
	return d
}
