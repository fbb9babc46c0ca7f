// Package database owns the service's SQLite connection: opening it with
// retries, pool sizing, health pings, transactions and translation of
// driver errors into AppErrors.
package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/resilience"
)

// DB is an open connection pool.
type DB struct {
	GormDB *gorm.DB

	log       *logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// sqliteDefaults are appended to the DSN unless it already sets the key.
var sqliteDefaults = []struct{ keys, param string }{
	{"_foreign_keys _fk", "_foreign_keys=on"},
	{"_busy_timeout", "_busy_timeout=5000"},
}

func sqliteDSN(dsn string) string {
	out := dsn
	for _, d := range sqliteDefaults {
		if containsAny(dsn, strings.Fields(d.keys)) {
			continue
		}
		if strings.Contains(out, "?") {
			out += "&" + d.param
		} else {
			out += "?" + d.param
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// New opens cfg.DSN, retrying while the file is locked or unreachable.
// Cancelling ctx abandons the remaining attempts.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	dialector := sqlite.Open(sqliteDSN(cfg.DSN))
	gcfg := &gorm.Config{
		Logger:         newGormLogger(log, cfg.SlowQuery, parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	policy := resilience.Policy{
		Attempts: cfg.MaxRetries,
		Base:     time.Second,
		Cap:      10 * time.Second,
		Jitter:   0.1,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn("Database not reachable yet", map[string]interface{}{
				"attempt":  attempt,
				"error":    err.Error(),
				"retry_in": wait.String(),
			})
		},
	}
	gdb, err := resilience.Do(ctx, policy, func(ctx context.Context) (*gorm.DB, error) {
		return connect(ctx, dialector, gcfg)
	})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.DSN, err)
	}

	pool, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	log.Info("Database opened", map[string]interface{}{"dsn": cfg.DSN})
	return &DB{GormDB: gdb, log: log}, nil
}

func connect(ctx context.Context, d gorm.Dialector, gcfg *gorm.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(d, gcfg)
	if err != nil {
		return nil, err
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return gdb, nil
}

// Close releases the pool. Later calls return the first result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		pool, err := d.GormDB.DB()
		if err != nil {
			d.closeErr = err
			return
		}
		d.log.Info("Closing database")
		d.closeErr = pool.Close()
	})
	return d.closeErr
}

// WithContext returns a session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// WithTransaction runs fn in a transaction that commits only if fn returns
// nil. A panic in fn rolls back and is re-raised.
func (d *DB) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.GormDB.WithContext(ctx).Transaction(fn)
}

// Ping checks the pool and returns the round trip and open connection count.
func (d *DB) Ping(ctx context.Context) (latency time.Duration, open int, err error) {
	pool, err := d.GormDB.DB()
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	if err := pool.PingContext(ctx); err != nil {
		return time.Since(start), 0, err
	}
	return time.Since(start), pool.Stats().OpenConnections, nil
}
