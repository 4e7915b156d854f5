package db

import "database/sql"

// SchemaSQL is the complete schema for fresh installs of the local site store.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(). If repository code references a column that
// doesn't exist here, tests fail immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Run `make test` to verify alignment
const SchemaSQL = `
-- Webs (the root web has no parent)
CREATE TABLE IF NOT EXISTS webs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	server_relative_url TEXT NOT NULL UNIQUE,
	parent_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (parent_id) REFERENCES webs(id) ON DELETE CASCADE
);

-- Lists
CREATE TABLE IF NOT EXISTS lists (
	id TEXT PRIMARY KEY,
	web_id TEXT NOT NULL,
	title TEXT NOT NULL,
	root_folder_url TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (web_id) REFERENCES webs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_lists_web ON lists(web_id);

-- Site fields; schema_xml carries the stamped Version attribute
CREATE TABLE IF NOT EXISTS fields (
	id TEXT NOT NULL,
	web_id TEXT NOT NULL,
	internal_name TEXT NOT NULL,
	title TEXT NOT NULL,
	type_as_string TEXT NOT NULL,
	field_group TEXT,
	default_value TEXT,
	schema_xml TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (web_id, id),
	UNIQUE (web_id, internal_name),
	FOREIGN KEY (web_id) REFERENCES webs(id) ON DELETE CASCADE
);

-- Content types
CREATE TABLE IF NOT EXISTS content_types (
	id TEXT NOT NULL,
	web_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	ct_group TEXT,
	hidden INTEGER NOT NULL DEFAULT 0,
	sealed INTEGER NOT NULL DEFAULT 0,
	read_only INTEGER NOT NULL DEFAULT 0,
	document_template TEXT,
	new_form_url TEXT,
	edit_form_url TEXT,
	display_form_url TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (web_id, id),
	UNIQUE (web_id, name),
	FOREIGN KEY (web_id) REFERENCES webs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS field_links (
	web_id TEXT NOT NULL,
	content_type_id TEXT NOT NULL,
	field_id TEXT NOT NULL,
	name TEXT NOT NULL,
	required INTEGER NOT NULL DEFAULT 0,
	hidden INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL,
	PRIMARY KEY (web_id, content_type_id, field_id),
	FOREIGN KEY (web_id, content_type_id) REFERENCES content_types(web_id, id) ON DELETE CASCADE
);

-- Taxonomy
CREATE TABLE IF NOT EXISTS term_stores (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS term_groups (
	id TEXT PRIMARY KEY,
	term_store_id TEXT NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (term_store_id) REFERENCES term_stores(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS term_sets (
	id TEXT PRIMARY KEY,
	term_group_id TEXT NOT NULL,
	name TEXT NOT NULL,
	FOREIGN KEY (term_group_id) REFERENCES term_groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS terms (
	id TEXT PRIMARY KEY,
	term_set_id TEXT NOT NULL,
	label TEXT NOT NULL,
	FOREIGN KEY (term_set_id) REFERENCES term_sets(id) ON DELETE CASCADE
);

-- Hidden list mapping terms to site-local wssIds
CREATE TABLE IF NOT EXISTS taxonomy_hidden_list (
	wss_id INTEGER PRIMARY KEY AUTOINCREMENT,
	term_id TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL
);

-- Security
CREATE TABLE IF NOT EXISTS role_definitions (
	id INTEGER NOT NULL,
	web_id TEXT NOT NULL,
	name TEXT NOT NULL,
	role_type_kind TEXT NOT NULL DEFAULT 'None',
	PRIMARY KEY (web_id, id),
	FOREIGN KEY (web_id) REFERENCES webs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS site_groups (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS associated_groups (
	web_id TEXT PRIMARY KEY,
	visitor_group_id INTEGER,
	member_group_id INTEGER,
	owner_group_id INTEGER,
	FOREIGN KEY (web_id) REFERENCES webs(id) ON DELETE CASCADE,
	FOREIGN KEY (visitor_group_id) REFERENCES site_groups(id) ON DELETE SET NULL,
	FOREIGN KEY (member_group_id) REFERENCES site_groups(id) ON DELETE SET NULL,
	FOREIGN KEY (owner_group_id) REFERENCES site_groups(id) ON DELETE SET NULL
);

-- One row per committed batch
CREATE TABLE IF NOT EXISTS commits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	web_id TEXT NOT NULL,
	effect_count INTEGER NOT NULL,
	committed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Provisioning run log
CREATE TABLE IF NOT EXISTS run_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	severity TEXT NOT NULL CHECK(severity IN ('info', 'warning', 'error')),
	scope TEXT,
	message TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_run_log_run ON run_log(run_id);
CREATE INDEX IF NOT EXISTS idx_run_log_created ON run_log(created_at);
`

// InitSchema creates the database schema
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		// schema_version table exists - run any pending migrations
		return RunMigrations(db)
	}

	// Fresh install - create the schema directly and mark every migration applied
	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
