// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/pnp/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupSeededDB creates an in-memory database holding the demo site.
func setupSeededDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB := setupTestDB(t)
	if err := db.SeedFixtures(testDB); err != nil {
		t.Fatalf("failed to seed fixtures: %v", err)
	}
	return testDB
}

// seedWeb inserts a web and returns its ID. An empty parentID makes it the root.
func seedWeb(t *testing.T, testDB *sql.DB, id, url, parentID string) string {
	t.Helper()
	var parent any
	if parentID != "" {
		parent = parentID
	}
	_, err := testDB.Exec("INSERT INTO webs (id, title, server_relative_url, parent_id) VALUES (?, ?, ?, ?)", id, "Web "+id, url, parent)
	if err != nil {
		t.Fatalf("failed to seed web: %v", err)
	}
	return id
}

// seedContentType inserts a content type without links.
func seedContentType(t *testing.T, testDB *sql.DB, webID, id, name string) {
	t.Helper()
	_, err := testDB.Exec("INSERT INTO content_types (id, web_id, name) VALUES (?, ?, ?)", id, webID, name)
	if err != nil {
		t.Fatalf("failed to seed content type: %v", err)
	}
}

// countRows returns the number of rows in a table.
func countRows(t *testing.T, testDB *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
