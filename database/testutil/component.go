// Package testutil provides a migrated SQLite database for tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kbukum/invoicer/database"
	"github.com/kbukum/invoicer/database/schema"
	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/testutil"
)

// dataTables are cleared by Reset, children first. The seeded roles and
// regions stay.
var dataTables = []string{
	"invoice_items",
	"invoices",
	"clients",
	"products",
	"user_roles",
	"users",
}

// Component is a file-backed database with the service schema applied.
type Component struct {
	*testutil.Resource[*database.DB]
}

// NewComponent keeps the database file in dir, usually t.TempDir().
func NewComponent(dir string) *Component {
	cfg := database.Config{
		DSN:        filepath.Join(dir, "invoicer-test.db"),
		MaxRetries: 1,
		Migrate:    true,
		LogLevel:   "silent",
	}
	return &Component{testutil.NewResource("database-test", testutil.Hooks[*database.DB]{
		Open: func(ctx context.Context) (*database.DB, error) {
			c := database.NewComponent(cfg, logger.NewDefault("database-test")).WithMigrations(schema.FS, schema.Dir)
			if err := c.Start(ctx); err != nil {
				_ = c.Stop(ctx)
				return nil, err
			}
			return c.DB(), nil
		},
		Close: (*database.DB).Close,
		Reset: func(ctx context.Context, db *database.DB) error {
			gdb := db.WithContext(ctx)
			for _, table := range dataTables {
				if err := TruncateTable(gdb, table); err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
			return nil
		},
		Check: func(ctx context.Context, db *database.DB) error {
			_, _, err := db.Ping(ctx)
			return err
		},
	})}
}

// NewDB starts a migrated database that is closed when t ends.
func NewDB(t testing.TB) *database.DB {
	t.Helper()
	c := NewComponent(t.TempDir())
	testutil.T(t).Setup(c)
	return c.DB()
}

// DB is nil when not running.
func (c *Component) DB() *database.DB {
	db, _ := c.Get()
	return db
}
