// Package bootstrap runs the service lifecycle: start the registered
// components in order, print the startup summary, wait for SIGINT or
// SIGTERM and stop everything in reverse within a grace period.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/logger"
)

const defaultGracePeriod = 15 * time.Second

// App is a configured service and its components.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	grace time.Duration
}

// Option adjusts NewApp. Options are not generic so one set serves any
// config type.
type Option func(*options)

type options struct {
	log        *logger.Logger
	grace      time.Duration
	summaryOut io.Writer
}

// WithLogger replaces the logger otherwise built from the logging config.
func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

// WithGracefulTimeout bounds shutdown; the default is 15s.
func WithGracefulTimeout(d time.Duration) Option { return func(o *options) { o.grace = d } }

// WithSummaryOutput redirects the startup summary away from stdout.
func WithSummaryOutput(w io.Writer) Option { return func(o *options) { o.summaryOut = w } }

// NewApp defaults and validates cfg, then installs the process logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	o := options{grace: defaultGracePeriod}
	for _, opt := range opts {
		opt(&o)
	}

	base := cfg.GetServiceConfig()
	if o.log != nil {
		logger.SetGlobalLogger(o.log)
	} else {
		logger.Init(&base.Logging)
	}

	summary := NewSummary(base.Name, base.Version)
	if o.summaryOut != nil {
		summary.out = o.summaryOut
	}
	return &App[C]{
		Name:       base.Name,
		Version:    base.Version,
		Cfg:        cfg,
		Components: component.NewRegistry(),
		Logger:     logger.GetGlobalLogger(),
		Summary:    summary,
		grace:      o.grace,
	}, nil
}

func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// ReadyCheck fails while any component reports something other than healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		entry := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			entry += " (" + h.Message + ")"
		}
		bad = append(bad, entry)
	}
	if len(bad) > 0 {
		return fmt.Errorf("not ready: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Run starts every component and blocks until ctx ends or the process is
// signalled, then shuts down. A failed start stops whatever did start.
func (a *App[C]) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	began := time.Now()
	a.Logger.Info("Starting application", logger.Fields("name", a.Name, "version", a.Version))
	if err := a.Components.StartAll(ctx); err != nil {
		if stopErr := a.shutdown(); stopErr != nil {
			a.Logger.Warn("Cleanup after failed startup", logger.Fields(logger.FieldError, stopErr.Error()))
		}
		return fmt.Errorf("startup: %w", err)
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Started with unhealthy components", logger.Fields(logger.FieldError, err.Error()))
	}
	a.Summary.SetStartupDuration(time.Since(began))
	a.Summary.Display(ctx, a.Components)

	<-ctx.Done()
	a.Logger.Info("Shutdown requested", logger.Fields("cause", context.Cause(ctx).Error()))
	return a.shutdown()
}

// shutdown gets its own deadline: the run context is already done.
func (a *App[C]) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	err := a.Components.StopAll(ctx)
	if err != nil {
		a.Logger.Error("Shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	a.Logger.Info("Application stopped")
	return nil
}
