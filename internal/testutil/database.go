package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations; tests start with
// empty tables and seed what they need through the builders.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Holding table
		CREATE TABLE holding (
			symbol VARCHAR(10) NOT NULL PRIMARY KEY,
			quantity INTEGER NOT NULL DEFAULT 0,
			original_quantity INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Target allocation table
		CREATE TABLE target_allocation (
			symbol VARCHAR(10) NOT NULL PRIMARY KEY,
			percentage FLOAT NOT NULL
		);

		-- Quote cache table
		CREATE TABLE quote_cache (
			cache_key VARCHAR(64) NOT NULL PRIMARY KEY,
			symbol VARCHAR(10) NOT NULL UNIQUE,
			payload TEXT NOT NULL,
			fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL
		);

		-- Trade table
		CREATE TABLE trade (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			run_id VARCHAR(36) NOT NULL,
			symbol VARCHAR(10) NOT NULL,
			delta_quantity INTEGER NOT NULL,
			close_value FLOAT NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL
		);

		-- System setting table
		CREATE TABLE system_setting (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			"key" VARCHAR(32) NOT NULL UNIQUE,
			value VARCHAR(512) NOT NULL,
			updated_at DATETIME
		);

		CREATE INDEX ix_trade_run_id ON trade(run_id);
		CREATE INDEX ix_trade_symbol ON trade(symbol);
		CREATE INDEX ix_quote_cache_symbol ON quote_cache(symbol);
	`

	_, err := db.Exec(schema)
	return err
}
