package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/database/migration"
	"github.com/kbukum/invoicer/logger"
)

// Component opens the database on Start and migrates it when configured.
type Component struct {
	cfg Config
	log *logger.Logger
	db  *DB

	schema    fs.FS
	schemaDir string
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("database")}
}

// WithMigrations sets the SQL files applied by Start when cfg.Migrate is on.
func (c *Component) WithMigrations(fsys fs.FS, dir string) *Component {
	c.schema, c.schemaDir = fsys, dir
	return c
}

// DB is nil until Start succeeds.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	db, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.db = db
	if !c.cfg.Migrate || c.schema == nil {
		return nil
	}
	m, err := migration.New(db.GormDB, c.schema, c.schemaDir, c.log)
	if err == nil {
		err = m.Up()
	}
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if v, dirty, err := m.Version(); err == nil {
		c.log.Info("Schema migrated", map[string]interface{}{"version": v, "dirty": dirty})
	}
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	if c.db == nil {
		h.Message = "not started"
		return h
	}
	latency, open, err := c.db.Ping(ctx)
	if err != nil {
		h.Message = "ping: " + err.Error()
		return h
	}
	h.Status = component.StatusHealthy
	h.Message = fmt.Sprintf("latency=%s open=%d", latency, open)
	return h
}

func (c *Component) Describe() component.Description {
	d := component.Description{
		Name:    "SQLite",
		Type:    "database",
		Details: fmt.Sprintf("%s pool=%d/%d", c.cfg.DSN, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns),
	}
	if c.cfg.Migrate {
		d.Details += " migrate=on"
	}
	return d
}
