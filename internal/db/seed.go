package db

import (
	"database/sql"
	"fmt"
)

// Well-known identifiers of the demo site loaded by SeedFixtures.
const (
	SeedRootWebID      = "6a3f9e02-4b1c-4d5e-9f10-2c3b4a5d6e7f"
	SeedProjectsWebID  = "8c1d2e3f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	SeedTermStoreID    = "2f4e6d8c-1a3b-4c5d-9e7f-0b2d4f6a8c1e"
	SeedColorsTermSet  = "5b7d9f1e-3c5a-4e6b-8d0f-2a4c6e8b0d3f"
	SeedTermRed        = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	SeedTermGreen      = "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e"
	SeedTitleFieldID   = "fa564e0f-0c70-4ab9-b863-0177e6ddd247"
	SeedProjectsWebURL = "/projects"
)

// SeedFixtures populates the database with a small demo site: a root web with
// one sub web, the built-in content types and fields, a term store and the
// default security groups.
func SeedFixtures(database *sql.DB) error {
	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	exec := func(what, query string, args ...any) error {
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("seed %s: %w", what, err)
		}
		return nil
	}

	// Webs
	if err := exec("webs", "INSERT INTO webs (id, title, server_relative_url) VALUES (?, 'Contoso', '/')", SeedRootWebID); err != nil {
		return err
	}
	if err := exec("webs", "INSERT INTO webs (id, title, server_relative_url, parent_id) VALUES (?, 'Projects', ?, ?)", SeedProjectsWebID, SeedProjectsWebURL, SeedRootWebID); err != nil {
		return err
	}

	// Lists
	lists := []struct{ id, web, title, url string }{
		{"3e2d1c0b-9a8f-4e7d-6c5b-4a3928171605", SeedRootWebID, "Documents", "/Shared Documents"},
		{"4f3e2d1c-0b9a-4f8e-7d6c-5b4a39281716", SeedRootWebID, "Site Pages", "/SitePages"},
		{"5a4f3e2d-1c0b-4a9f-8e7d-6c5b4a392817", SeedProjectsWebID, "Tasks", "/projects/Lists/Tasks"},
	}
	for _, l := range lists {
		if err := exec("lists", "INSERT INTO lists (id, web_id, title, root_folder_url) VALUES (?, ?, ?, ?)", l.id, l.web, l.title, l.url); err != nil {
			return err
		}
	}

	// Fields
	fields := []struct{ id, name, title, typ string }{
		{SeedTitleFieldID, "Title", "Title", "Text"},
		{"8553196d-ec8d-4564-9861-3dbe931050c8", "FileLeafRef", "Name", "File"},
		{"52578fc3-1f01-4f4d-b016-94ccbcf428cf", "_Comments", "Comments", "Note"},
	}
	for _, f := range fields {
		schema := fmt.Sprintf(`<Field ID="{%s}" Name="%s" StaticName="%s" Type="%s" DisplayName="%s" Group="_Hidden" Version="1"></Field>`,
			f.id, f.name, f.name, f.typ, f.title)
		if err := exec("fields",
			"INSERT INTO fields (id, web_id, internal_name, title, type_as_string, field_group, schema_xml) VALUES (?, ?, ?, ?, ?, '_Hidden', ?)",
			f.id, SeedRootWebID, f.name, f.title, f.typ, schema,
		); err != nil {
			return err
		}
	}

	// Content types with their inherited links
	cts := []struct{ id, name, group string }{
		{"0x01", "Item", "List Content Types"},
		{"0x0101", "Document", "Document Content Types"},
		{"0x0120", "Folder", "Folder Content Types"},
	}
	for _, ct := range cts {
		if err := exec("content types", "INSERT INTO content_types (id, web_id, name, ct_group) VALUES (?, ?, ?, ?)", ct.id, SeedRootWebID, ct.name, ct.group); err != nil {
			return err
		}
	}
	links := []struct {
		ct, field, name string
		required        bool
		position        int
	}{
		{"0x01", SeedTitleFieldID, "Title", true, 0},
		{"0x0101", "8553196d-ec8d-4564-9861-3dbe931050c8", "FileLeafRef", true, 0},
		{"0x0101", SeedTitleFieldID, "Title", false, 1},
	}
	for _, l := range links {
		if err := exec("field links",
			"INSERT INTO field_links (web_id, content_type_id, field_id, name, required, position) VALUES (?, ?, ?, ?, ?, ?)",
			SeedRootWebID, l.ct, l.field, l.name, l.required, l.position,
		); err != nil {
			return err
		}
	}

	// Taxonomy
	if err := exec("term stores", "INSERT INTO term_stores (id, name, is_default) VALUES (?, 'Taxonomy_Contoso', 1)", SeedTermStoreID); err != nil {
		return err
	}
	if err := exec("term groups", "INSERT INTO term_groups (id, term_store_id, name) VALUES ('9d8c7b6a-5f4e-4d3c-2b1a-0f9e8d7c6b5a', ?, 'Corporate')", SeedTermStoreID); err != nil {
		return err
	}
	if err := exec("term sets", "INSERT INTO term_sets (id, term_group_id, name) VALUES (?, '9d8c7b6a-5f4e-4d3c-2b1a-0f9e8d7c6b5a', 'Colors')", SeedColorsTermSet); err != nil {
		return err
	}
	for id, label := range map[string]string{SeedTermRed: "Red", SeedTermGreen: "Green"} {
		if err := exec("terms", "INSERT INTO terms (id, term_set_id, label) VALUES (?, ?, ?)", id, SeedColorsTermSet, label); err != nil {
			return err
		}
	}

	// Security
	roles := []struct {
		id         int
		name, kind string
	}{
		{1073741829, "Full Control", "Administrator"},
		{1073741830, "Design", "WebDesigner"},
		{1073741827, "Contribute", "Contributor"},
		{1073741826, "Read", "Reader"},
		{1073741825, "Limited Access", "Guest"},
		{1073741924, "Approve", "None"},
	}
	for _, web := range []string{SeedRootWebID, SeedProjectsWebID} {
		for _, r := range roles {
			if err := exec("role definitions", "INSERT INTO role_definitions (id, web_id, name, role_type_kind) VALUES (?, ?, ?, ?)", r.id, web, r.name, r.kind); err != nil {
				return err
			}
		}
	}

	groups := []struct {
		id    int
		title string
	}{
		{3, "Contoso Owners"},
		{4, "Contoso Visitors"},
		{5, "Contoso Members"},
	}
	for _, g := range groups {
		if err := exec("site groups", "INSERT INTO site_groups (id, title) VALUES (?, ?)", g.id, g.title); err != nil {
			return err
		}
	}
	for _, web := range []string{SeedRootWebID, SeedProjectsWebID} {
		if err := exec("associated groups",
			"INSERT INTO associated_groups (web_id, visitor_group_id, member_group_id, owner_group_id) VALUES (?, 4, 5, 3)", web,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
