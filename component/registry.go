package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/invoicer/logger"
)

// StopTimeout bounds each component's Stop.
const StopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse. Components start one after another, so the started ones are
// always a prefix of the list.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	started    int
	log        *logger.Logger
}

func NewRegistry() *Registry {
	return &Registry{log: logger.WithComponent("components")}
}

// Register appends c. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.components {
		if existing.Name() == c.Name() {
			return fmt.Errorf("component %s already registered", c.Name())
		}
	}
	r.components = append(r.components, c)
	return nil
}

// StartAll starts what is not running yet. It stops at the first failure
// and leaves the earlier components running for StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ; r.started < len(r.components); r.started++ {
		c := r.components[r.started]
		if err := c.Start(ctx); err != nil {
			r.log.Error("Component start failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
		r.log.Debug("Component started", logger.Fields(logger.FieldComponent, c.Name()))
	}
	r.log.Info("Components started", logger.Fields("count", r.started))
	return nil
}

// StopAll stops every started component, newest first, and joins the
// errors. Each Stop gets StopTimeout.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for ; r.started > 0; r.started-- {
		c := r.components[r.started-1]
		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			r.log.Error("Component stop failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Info("Component stopped", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll asks every registered component, started or not.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, len(r.components))
	for i, c := range r.components {
		out[i] = c.Health(ctx)
	}
	return out
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}
