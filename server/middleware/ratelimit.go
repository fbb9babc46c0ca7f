package middleware

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
)

// RateLimitConfig limits requests per key over a one minute window.
type RateLimitConfig struct {
	// RequestsPerMinute of zero or less turns limiting off.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"` // client IP when nil
	Limiter Limiter                   `yaml:"-" mapstructure:"-"` // in-process window when nil
}

func (c RateLimitConfig) Enabled() bool { return c.RequestsPerMinute > 0 }

// Limiter decides whether one more request for key fits the limit.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests over the limit with RATE_LIMITED. A Limiter
// error lets the request through. The in-process window prunes idle keys
// until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig, opts ...GateOption) gin.HandlerFunc {
	if !cfg.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	o := newGateOptions(opts)
	keyOf := cfg.KeyFunc
	if keyOf == nil {
		keyOf = IPBasedKey
	}
	limiter := cfg.Limiter
	if limiter == nil {
		w := newWindow(cfg.RequestsPerMinute, time.Minute, time.Now)
		go w.prune(ctx, 5*time.Minute)
		limiter = w
	}

	return func(c *gin.Context) {
		ok, err := limiter.Allow(c.Request.Context(), keyOf(c))
		if err != nil {
			o.log.Warn("Rate limiter unavailable", logger.Fields(logger.FieldError, err.Error()))
			ok = true
		}
		if !ok {
			o.onError(c, errors.RateLimited())
			c.Abort()
			return
		}
		c.Next()
	}
}

func IPBasedKey(c *gin.Context) string { return c.ClientIP() }

// window is a sliding log of accepted request times per key, oldest first.
type window struct {
	limit int
	span  time.Duration
	now   func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func newWindow(limit int, span time.Duration, now func() time.Time) *window {
	return &window{limit: limit, span: span, now: now, hits: map[string][]time.Time{}}
}

// live drops the hits that fell out of the window ending at now.
func (w *window) live(hits []time.Time, now time.Time) []time.Time {
	edge := now.Add(-w.span)
	i, _ := slices.BinarySearchFunc(hits, edge, func(t, e time.Time) int { return t.Compare(e) })
	for i < len(hits) && !hits[i].After(edge) {
		i++
	}
	return hits[i:]
}

func (w *window) Allow(_ context.Context, key string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	hits := w.live(w.hits[key], now)
	if len(hits) >= w.limit {
		w.hits[key] = hits
		return false, nil
	}
	w.hits[key] = append(hits, now)
	return true, nil
}

func (w *window) prune(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.mu.Lock()
			now := w.now()
			maps.DeleteFunc(w.hits, func(_ string, hits []time.Time) bool {
				return len(w.live(hits, now)) == 0
			})
			w.mu.Unlock()
		}
	}
}
