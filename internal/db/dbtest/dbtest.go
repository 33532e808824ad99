// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"io"
	"testing"

	"wallet_ledger/internal/config"
	"wallet_ledger/internal/db"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory SQLite database closed at test cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	gdb, err := db.Open(&config.Config{DBDriver: config.DriverSQLite, DBName: ":memory:"}, log)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return gdb
}
