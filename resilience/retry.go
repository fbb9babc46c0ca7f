package resilience

import (
	"context"
	"errors"
	"iter"
	"math/rand/v2"
	"time"
)

// Policy is a capped doubling backoff. The zero value makes three
// attempts starting at 100ms.
type Policy struct {
	Attempts int           // including the first call
	Base     time.Duration // wait after the first failure
	Cap      time.Duration // longest single wait
	Jitter   float64       // shortens each wait by up to this fraction

	// Retryable defaults to everything except context errors.
	Retryable func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func (p Policy) normalized() Policy {
	p.Attempts = max(p.Attempts, 0)
	if p.Attempts == 0 {
		p.Attempts = 3
	}
	if p.Base <= 0 {
		p.Base = 100 * time.Millisecond
	}
	if p.Cap <= 0 {
		p.Cap = 10 * time.Second
	}
	p.Cap = max(p.Cap, p.Base)
	p.Jitter = min(max(p.Jitter, 0), 1)
	if p.Retryable == nil {
		p.Retryable = transient
	}
	return p
}

func transient(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Waits yields the pause before each retry, Attempts-1 values in total.
func (p Policy) Waits() iter.Seq[time.Duration] {
	p = p.normalized()
	return func(yield func(time.Duration) bool) {
		d := p.Base
		for range p.Attempts - 1 {
			w := d
			if p.Jitter > 0 {
				w -= time.Duration(rand.Float64() * p.Jitter * float64(w))
			}
			if !yield(w) {
				return
			}
			d = min(d*2, p.Cap)
		}
	}
}

// Do calls fn until it succeeds, returns an error Retryable rejects, or the
// attempts are used up. It returns the last error from fn, or ctx.Err() if
// the context ends first.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	p = p.normalized()
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	v, err := fn(ctx)
	attempt := 1
	for wait := range p.Waits() {
		if err == nil || !p.Retryable(err) {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return zero, sleepErr
		}
		attempt++
		v, err = fn(ctx)
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
