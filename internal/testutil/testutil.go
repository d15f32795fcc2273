package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/driftboard/driftboard/internal/repository/postgres"
	"github.com/driftboard/driftboard/migrations"
)

// NewTestDB creates an in-memory SQLite database with the full schema
// applied from the embedded migrations.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// In-memory sqlite disappears when its only connection closes.
	db.SetMaxOpenConns(1)

	if err := postgres.RunMigrations(db, migrations.GetFS()); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return db
}
