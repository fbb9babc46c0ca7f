package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/testutil"
)

func TestNewDB_AppliesSchema(t *testing.T) {
	db := NewDB(t)
	gdb := db.GormDB

	for _, table := range []string{"users", "roles", "user_roles", "regions", "clients", "products", "invoices", "invoice_items"} {
		if !TableExists(gdb, table) {
			t.Errorf("table %s should exist", table)
		}
	}
	AssertRowCount(t, gdb, "roles", 2)
	AssertRowCount(t, gdb, "regions", 8)
	AssertTableEmpty(t, gdb, "users")
}

func TestComponent_ResetKeepsReferenceData(t *testing.T) {
	c := NewComponent(t.TempDir())
	testutil.T(t).Setup(c)
	gdb := c.DB().GormDB

	MustLoadFixture(t, gdb, "products", []map[string]interface{}{
		{"name": "Panasonic LCD", "price": 259990.0, "created_at": "2024-01-10"},
		{"name": "Sony Camera", "price": 123490.0, "created_at": "2024-01-11"},
	})
	AssertRowCount(t, gdb, "products", 2)

	testutil.T(t).Reset(c)

	AssertTableEmpty(t, gdb, "products")
	AssertRowCount(t, gdb, "roles", 2)
	AssertRowCount(t, gdb, "regions", 8)
}

func TestComponent_Health(t *testing.T) {
	c := NewComponent(t.TempDir())
	if got := c.Health(context.Background()).Status; got != component.StatusUnhealthy {
		t.Errorf("Health() before Start = %q, want unhealthy", got)
	}

	testutil.T(t).Setup(c)
	if got := c.Health(context.Background()).Status; got != component.StatusHealthy {
		t.Errorf("Health() after Start = %q, want healthy", got)
	}
}

func TestLoadFixture_EmptyData(t *testing.T) {
	db := NewDB(t)
	if err := LoadFixture(db.GormDB, "products", nil); err != nil {
		t.Errorf("LoadFixture() with empty data failed: %v", err)
	}
	AssertTableEmpty(t, db.GormDB, "products")
}
