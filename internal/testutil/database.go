package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/finsight-ai/finsight-backend/internal/database"
)

// SetupTestDB creates a migrated SQLite database in the test's temp directory.
// A file is used rather than :memory: because each pooled connection to an
// in-memory database would see its own empty schema.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema and seeded instruments
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}
