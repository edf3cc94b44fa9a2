package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/splitnest/splitnest/internal/database"
)

// MustOpenTestDB opens an in-memory SQLite database for tests and applies the
// schema. The returned connection is automatically closed via t.Cleanup.
func MustOpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	closeOnCleanup(t, db)
	return db
}

// MustOpenSharedTestDB opens a file-backed SQLite database that supports
// concurrent writers (immediate transactions plus a busy timeout). Used by
// tests that race real goroutines through transactional code paths.
func MustOpenSharedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.ToSlash(filepath.Join(t.TempDir(), "splitnest-test.sqlite"))
	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)

	db, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	closeOnCleanup(t, db)
	return db
}

func closeOnCleanup(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
}
