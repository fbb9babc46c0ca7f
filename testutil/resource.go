package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/invoicer/component"
)

// ErrNotStarted is returned by Reset on a resource that is not running.
var ErrNotStarted = errors.New("testutil: not started")

// Hooks describe how a Resource creates, checks, clears and releases its
// value. Only Open is required.
type Hooks[T any] struct {
	Open  func(ctx context.Context) (T, error)
	Close func(v T) error
	Reset func(ctx context.Context, v T) error
	Check func(ctx context.Context, v T) error
}

// Resource adapts a value with an open/close lifecycle to TestComponent.
// Test components embed it and add accessors for their value.
type Resource[T any] struct {
	name  string
	hooks Hooks[T]

	mu   sync.RWMutex
	v    T
	live bool
}

var _ TestComponent = (*Resource[int])(nil)

func NewResource[T any](name string, hooks Hooks[T]) *Resource[T] {
	return &Resource[T]{name: name, hooks: hooks}
}

// Get returns the running value. ok is false before Start and after Stop.
func (r *Resource[T]) Get() (v T, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v, r.live
}

func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live {
		return fmt.Errorf("%s: already started", r.name)
	}
	v, err := r.hooks.Open(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", r.name, err)
	}
	r.v, r.live = v, true
	return nil
}

func (r *Resource[T]) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live {
		return nil
	}
	v := r.v
	var zero T
	r.v, r.live = zero, false
	if r.hooks.Close == nil {
		return nil
	}
	return r.hooks.Close(v)
}

// Reset and Health hold a read lock so Stop cannot close the value under them.
func (r *Resource[T]) Reset(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.live {
		return fmt.Errorf("%s: %w", r.name, ErrNotStarted)
	}
	if r.hooks.Reset == nil {
		return nil
	}
	return r.hooks.Reset(ctx, r.v)
}

func (r *Resource[T]) Health(ctx context.Context) component.Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h := component.Health{Name: r.name, Status: component.StatusHealthy}
	switch {
	case !r.live:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case r.hooks.Check != nil:
		if err := r.hooks.Check(ctx, r.v); err != nil {
			h.Status, h.Message = component.StatusUnhealthy, err.Error()
		}
	}
	return h
}
