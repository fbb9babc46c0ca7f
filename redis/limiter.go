package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// WindowLimiter is a fixed-window request counter shared through Redis.
// Each key gets one counter per window; the counter expires with the window.
type WindowLimiter struct {
	rdb    *goredis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewWindowLimiter allows limit requests per key in every window.
func NewWindowLimiter(rdb *goredis.Client, limit int, window time.Duration, prefix string) *WindowLimiter {
	return &WindowLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow counts one request for key and reports whether it fits the window.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	k := l.prefix + "ratelimit:" + key + ":" + strconv.FormatInt(slot, 10)

	var incr *goredis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}
