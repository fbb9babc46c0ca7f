// Package migration applies the versioned SQL files of an fs.FS (usually an
// embed.FS) to the SQLite database through golang-migrate.
//
//	m, err := migration.New(db.GormDB, schema.FS, schema.Dir, log)
//	err = m.Up()
//
// Files are named VERSION_title.up.sql and VERSION_title.down.sql.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/kbukum/invoicer/logger"
)

// Migrator shares the connection pool of the gorm handle it was built
// from and must not be closed on its own.
type Migrator struct {
	m *migrate.Migrate
}

// New reads the migrations under dir. A nil log keeps golang-migrate quiet.
func New(gdb *gorm.DB, fsys fs.FS, dir string, log *logger.Logger) (*Migrator, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("migration: %w", err)
	}
	driver, err := migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration: driver: %w", err)
	}
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migration: source %s: %w", dir, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("migration: %w", err)
	}
	if log != nil {
		m.Log = migrateLog{log.WithComponent("migrate")}
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error { return settle("up", m.m.Up()) }

// Steps applies n migrations forward, or rolls back -n when negative.
func (m *Migrator) Steps(n int) error { return settle(fmt.Sprintf("steps %d", n), m.m.Steps(n)) }

// Version is 0 for a database no migration has touched.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func settle(op string, err error) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return fmt.Errorf("migration: %s: %w", op, err)
}

// migrateLog routes golang-migrate progress lines to debug.
type migrateLog struct{ log *logger.Logger }

func (l migrateLog) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLog) Verbose() bool { return false }
