package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/database/migration"
	"github.com/kbukum/invoicer/database/schema"
	apperrors "github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
)

func startComponent(t *testing.T) *Component {
	t.Helper()
	cfg := Config{
		DSN:        filepath.Join(t.TempDir(), "test.db"),
		MaxRetries: 1,
		Migrate:    true,
		LogLevel:   "silent",
	}
	comp := NewComponent(cfg, logger.NewDefault("test")).WithMigrations(schema.FS, schema.Dir)
	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { _ = comp.Stop(context.Background()) })
	return comp
}

func TestComponent_Interface(t *testing.T) {
	var _ component.Component = NewComponent(Config{}, logger.NewDefault("test"))
	var _ component.Describable = NewComponent(Config{}, logger.NewDefault("test"))
}

func TestComponent_Lifecycle(t *testing.T) {
	comp := NewComponent(Config{DSN: filepath.Join(t.TempDir(), "test.db"), LogLevel: "silent"}, logger.NewDefault("test"))
	ctx := context.Background()

	if comp.DB() != nil {
		t.Error("DB() should be nil before Start")
	}
	if got := comp.Health(ctx).Status; got != component.StatusUnhealthy {
		t.Errorf("Health() before Start = %q, want unhealthy", got)
	}
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if got := comp.Health(ctx).Status; got != component.StatusHealthy {
		t.Errorf("Health() after Start = %q, want healthy", got)
	}
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if err := comp.Stop(ctx); err != nil {
		t.Errorf("second Stop() should be a no-op, got %v", err)
	}
}

func TestComponent_Migrations(t *testing.T) {
	comp := startComponent(t)
	gdb := comp.DB().GormDB

	m, err := migration.New(gdb, schema.FS, schema.Dir, nil)
	if err != nil {
		t.Fatalf("migration.New() error = %v", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 3 || dirty {
		t.Errorf("version = %d dirty = %v, want 3 false", version, dirty)
	}

	var roles []string
	gdb.Raw("SELECT name FROM roles ORDER BY id").Scan(&roles)
	if strings.Join(roles, ",") != "ROLE_USER,ROLE_ADMIN" {
		t.Errorf("roles = %v, want [ROLE_USER ROLE_ADMIN]", roles)
	}

	// Applying again is a no-op.
	if err := m.Up(); err != nil {
		t.Errorf("second Up() error = %v", err)
	}
}

func TestDB_ForeignKeysEnforced(t *testing.T) {
	comp := startComponent(t)
	err := comp.DB().GormDB.Exec(
		"INSERT INTO clients (first_name, last_name, email, created_at, region_id) VALUES (?, ?, ?, ?, ?)",
		"Andres", "Guzman", "andres@x.com", "2024-01-01", 999,
	).Error
	if err == nil {
		t.Fatal("insert with unknown region should fail")
	}
}

func TestDB_WithTransaction(t *testing.T) {
	db := startComponent(t).DB()
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO products (name, price, created_at) VALUES ('Mesa', 10, '2024-01-01')").Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want boom", err)
	}

	var count int64
	db.GormDB.Raw("SELECT COUNT(*) FROM products").Scan(&count)
	if count != 0 {
		t.Errorf("rolled back insert is visible: count = %d", count)
	}

	err = db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO products (name, price, created_at) VALUES ('Silla', 5, '2024-01-01')").Error
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}
	db.GormDB.Raw("SELECT COUNT(*) FROM products").Scan(&count)
	if count != 1 {
		t.Errorf("committed insert missing: count = %d", count)
	}
}

func TestDB_TransactionPanicRollsBack(t *testing.T) {
	db := startComponent(t).DB()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic was swallowed")
			}
		}()
		_ = db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
			tx.Exec("INSERT INTO products (name, price, created_at) VALUES ('Mesa', 10, '2024-01-01')")
			panic("boom")
		})
	}()

	var count int64
	db.GormDB.Raw("SELECT COUNT(*) FROM products").Scan(&count)
	if count != 0 {
		t.Errorf("insert survived a panic: count = %d", count)
	}
}

func TestDB_PingAndClose(t *testing.T) {
	db := startComponent(t).DB()
	ctx := context.Background()

	if _, open, err := db.Ping(ctx); err != nil || open < 1 {
		t.Fatalf("Ping() = %d, %v", open, err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, _, err := db.Ping(ctx); err == nil {
		t.Error("Ping() after Close should fail")
	}
}

func TestDB_TranslatesDuplicateKey(t *testing.T) {
	db := startComponent(t).DB()
	insert := func() error {
		return db.GormDB.Exec("INSERT INTO users (name, email, password) VALUES ('Ana', 'ana@x.com', 'h')").Error
	}
	if err := insert(); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := insert()
	if err == nil {
		t.Fatal("second insert should violate the unique index")
	}
	appErr := FromDatabase(err, "user")
	if appErr.Code != apperrors.ErrCodeAlreadyExists {
		t.Errorf("code = %s, want %s (err: %v)", appErr.Code, apperrors.ErrCodeAlreadyExists, err)
	}
}

func TestFromDatabase(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      apperrors.ErrorCode
		retryable bool
	}{
		{"not found", gorm.ErrRecordNotFound, apperrors.ErrCodeNotFound, false},
		{"duplicate", gorm.ErrDuplicatedKey, apperrors.ErrCodeAlreadyExists, false},
		{"foreign key", gorm.ErrForeignKeyViolated, apperrors.ErrCodeInvalidInput, false},
		{"locked", errors.New("database is locked"), apperrors.ErrCodeDatabaseError, true},
		{"closed", errors.New("sql: database is closed"), apperrors.ErrCodeDatabaseError, true},
		{"other", errors.New("syntax error"), apperrors.ErrCodeDatabaseError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDatabase(tt.err, "client")
			if got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}

	if FromDatabase(nil, "client") != nil {
		t.Error("FromDatabase(nil) should be nil")
	}
	appErr := apperrors.DuplicateEmail()
	if FromDatabase(appErr, "user") != appErr {
		t.Error("AppErrors should pass through unchanged")
	}
}
