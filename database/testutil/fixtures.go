package testutil

import (
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is one fixture record keyed by column name.
type Row = map[string]interface{}

// LoadFixture inserts rows into table in a single statement.
func LoadFixture(db *gorm.DB, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	return db.Table(table).Create(rows).Error
}

func MustLoadFixture(t testing.TB, db *gorm.DB, table string, rows []Row) {
	t.Helper()
	if err := LoadFixture(db, table, rows); err != nil {
		t.Fatalf("fixture %s: %v", table, err)
	}
}

// TruncateTable deletes every row. SQLite has no TRUNCATE.
func TruncateTable(db *gorm.DB, table string) error {
	return db.Exec("DELETE FROM ?", clause.Table{Name: table}).Error
}

func TableExists(db *gorm.DB, table string) bool {
	return db.Migrator().HasTable(table)
}

func CountRows(db *gorm.DB, table string) (n int64, err error) {
	err = db.Table(table).Count(&n).Error
	return n, err
}

func AssertTableEmpty(t testing.TB, db *gorm.DB, table string) {
	t.Helper()
	AssertRowCount(t, db, table, 0)
}

func AssertRowCount(t testing.TB, db *gorm.DB, table string, want int64) {
	t.Helper()
	got, err := CountRows(db, table)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	if got != want {
		t.Errorf("%s has %d rows, want %d", table, got, want)
	}
}
