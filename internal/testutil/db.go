// Package testutil provides a migrated SQLite database for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"worklog/internal/db"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB opens a fresh file-backed SQLite database under t.TempDir and runs
// migrations. The connection is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect("sqlite://"+filepath.Join(t.TempDir(), "worklog.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
