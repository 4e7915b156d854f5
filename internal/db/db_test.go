package db

import (
	"database/sql"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	var version int
	if err := conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != migrations[len(migrations)-1].Version {
		t.Errorf("schema version = %d, want %d", version, migrations[len(migrations)-1].Version)
	}

	// Re-running on an initialized database applies nothing.
	if err := InitSchema(conn); err != nil {
		t.Errorf("InitSchema() on existing schema error = %v", err)
	}
}

func TestSeedFixtures(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	if err := SeedFixtures(conn); err != nil {
		t.Fatalf("SeedFixtures() error = %v", err)
	}

	counts := map[string]int{
		"webs":             2,
		"lists":            3,
		"fields":           3,
		"content_types":    3,
		"terms":            2,
		"role_definitions": 12,
		"site_groups":      3,
	}
	for table, want := range counts {
		var got int
		if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}

	if err := SeedFixtures(conn); err == nil {
		t.Error("seeding twice should fail on duplicate keys")
	}
}

func TestRunMigrationsUpgradesOldDatabase(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	// A database created before the run log and commit counter existed.
	if err := createVersionTable(conn); err != nil {
		t.Fatalf("createVersionTable failed: %v", err)
	}

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for _, table := range []string{"run_log", "commits"} {
		var n int
		if err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("expected migration to create %s", table)
		}
	}

	var version int
	if err := conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}

	// Running again is a no-op.
	if err := RunMigrations(conn); err != nil {
		t.Errorf("second RunMigrations failed: %v", err)
	}
}
