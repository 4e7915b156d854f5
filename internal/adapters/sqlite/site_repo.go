// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/ports/secondary"
)

// SiteRepository implements secondary.SiteRepository over a local SQLite
// site store.
type SiteRepository struct {
	db *sql.DB
}

// NewSiteRepository creates a new SQLite site repository.
func NewSiteRepository(db *sql.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// GetWeb retrieves the web at a server-relative URL. "" means the root web.
func (r *SiteRepository) GetWeb(ctx context.Context, serverRelativeURL string) (*secondary.WebRecord, error) {
	if serverRelativeURL == "" {
		return r.GetRootWeb(ctx)
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, server_relative_url, parent_id FROM webs WHERE server_relative_url = ? COLLATE NOCASE`,
		serverRelativeURL,
	)
	web, err := scanWeb(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("web %s not found", serverRelativeURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get web: %w", err)
	}
	return web, nil
}

// GetRootWeb retrieves the root web of the site collection.
func (r *SiteRepository) GetRootWeb(ctx context.Context) (*secondary.WebRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, server_relative_url, parent_id FROM webs WHERE parent_id IS NULL ORDER BY created_at LIMIT 1`,
	)
	web, err := scanWeb(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("root web not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get root web: %w", err)
	}
	return web, nil
}

func scanWeb(row *sql.Row) (*secondary.WebRecord, error) {
	var (
		web      secondary.WebRecord
		parentID sql.NullString
	)
	if err := row.Scan(&web.ID, &web.Title, &web.ServerRelativeURL, &parentID); err != nil {
		return nil, err
	}
	web.IsRoot = !parentID.Valid
	return &web, nil
}

// ListLists retrieves the lists of a web.
func (r *SiteRepository) ListLists(ctx context.Context, webID string) ([]*secondary.ListRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, root_folder_url FROM lists WHERE web_id = ? ORDER BY title`,
		webID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	var lists []*secondary.ListRecord
	for rows.Next() {
		l := &secondary.ListRecord{}
		if err := rows.Scan(&l.ID, &l.Title, &l.RootFolderURL); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

const fieldColumns = `id, internal_name, title, type_as_string, field_group, default_value, schema_xml`

func scanField(scan func(dest ...any) error) (*secondary.FieldRecord, error) {
	var (
		f            secondary.FieldRecord
		group, value sql.NullString
	)
	if err := scan(&f.ID, &f.InternalName, &f.Title, &f.TypeAsString, &group, &value, &f.SchemaXML); err != nil {
		return nil, err
	}
	f.Group = group.String
	f.DefaultValue = value.String
	return &f, nil
}

// ListFields retrieves the site fields of a web.
func (r *SiteRepository) ListFields(ctx context.Context, webID string) ([]*secondary.FieldRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE web_id = ? ORDER BY rowid`,
		webID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer rows.Close()

	var fields []*secondary.FieldRecord
	for rows.Next() {
		f, err := scanField(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// GetField retrieves a site field by its identifier.
func (r *SiteRepository) GetField(ctx context.Context, webID, fieldID string) (*secondary.FieldRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE web_id = ? AND id = ?`,
		webID, guid.Normalize(fieldID),
	)
	f, err := scanField(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("field %s not found", fieldID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field: %w", err)
	}
	return f, nil
}

const contentTypeColumns = `id, name, description, ct_group, hidden, sealed, read_only, document_template, new_form_url, edit_form_url, display_form_url`

func scanContentType(scan func(dest ...any) error) (*secondary.ContentTypeRecord, error) {
	var (
		ct                                 secondary.ContentTypeRecord
		description, group, docTemplate    sql.NullString
		newForm, editForm, displayFormURLs sql.NullString
	)
	if err := scan(&ct.ID, &ct.Name, &description, &group, &ct.Hidden, &ct.Sealed, &ct.ReadOnly,
		&docTemplate, &newForm, &editForm, &displayFormURLs); err != nil {
		return nil, err
	}
	ct.Description = description.String
	ct.Group = group.String
	ct.DocumentTemplate = docTemplate.String
	ct.NewFormURL = newForm.String
	ct.EditFormURL = editForm.String
	ct.DisplayFormURL = displayFormURLs.String
	return &ct, nil
}

// ListContentTypes retrieves the content types of a web with their field links.
func (r *SiteRepository) ListContentTypes(ctx context.Context, webID string) ([]*secondary.ContentTypeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentTypeColumns+` FROM content_types WHERE web_id = ? ORDER BY id`,
		webID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}

	var cts []*secondary.ContentTypeRecord
	for rows.Next() {
		ct, err := scanContentType(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan content type: %w", err)
		}
		cts = append(cts, ct)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}

	for _, ct := range cts {
		links, err := r.listFieldLinks(ctx, webID, ct.ID)
		if err != nil {
			return nil, err
		}
		ct.FieldLinks = links
	}
	return cts, nil
}

// GetContentType retrieves a content type by its identifier.
func (r *SiteRepository) GetContentType(ctx context.Context, webID, id string) (*secondary.ContentTypeRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contentTypeColumns+` FROM content_types WHERE web_id = ? AND id = ? COLLATE NOCASE`,
		webID, id,
	)
	ct, err := scanContentType(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("content type %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content type: %w", err)
	}

	ct.FieldLinks, err = r.listFieldLinks(ctx, webID, ct.ID)
	if err != nil {
		return nil, err
	}
	return ct, nil
}

func (r *SiteRepository) listFieldLinks(ctx context.Context, webID, ctID string) ([]secondary.FieldLinkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT field_id, name, required, hidden FROM field_links WHERE web_id = ? AND content_type_id = ? ORDER BY position`,
		webID, ctID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list field links: %w", err)
	}
	defer rows.Close()

	var links []secondary.FieldLinkRecord
	for rows.Next() {
		var l secondary.FieldLinkRecord
		if err := rows.Scan(&l.FieldID, &l.Name, &l.Required, &l.Hidden); err != nil {
			return nil, fmt.Errorf("failed to scan field link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListTermStores retrieves every term store with its groups and term sets.
func (r *SiteRepository) ListTermStores(ctx context.Context) ([]*secondary.TermStoreRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, g.id, g.name, ts.id, ts.name
		FROM term_stores s
		LEFT JOIN term_groups g ON g.term_store_id = s.id
		LEFT JOIN term_sets ts ON ts.term_group_id = g.id
		ORDER BY s.name, g.name, ts.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list term stores: %w", err)
	}
	defer rows.Close()

	var stores []*secondary.TermStoreRecord
	for rows.Next() {
		var (
			storeID, storeName             string
			groupID, groupName, setID, set sql.NullString
		)
		if err := rows.Scan(&storeID, &storeName, &groupID, &groupName, &setID, &set); err != nil {
			return nil, fmt.Errorf("failed to scan term store: %w", err)
		}

		if len(stores) == 0 || stores[len(stores)-1].ID != storeID {
			stores = append(stores, &secondary.TermStoreRecord{ID: storeID, Name: storeName})
		}
		store := stores[len(stores)-1]
		if !groupID.Valid {
			continue
		}
		if len(store.Groups) == 0 || store.Groups[len(store.Groups)-1].ID != groupID.String {
			store.Groups = append(store.Groups, secondary.TermGroupRecord{ID: groupID.String, Name: groupName.String})
		}
		if setID.Valid {
			g := &store.Groups[len(store.Groups)-1]
			g.TermSets = append(g.TermSets, secondary.TermSetRecord{ID: setID.String, Name: set.String})
		}
	}
	return stores, rows.Err()
}

// GetDefaultSiteCollectionTermStore retrieves the term store flagged as the
// site collection default.
func (r *SiteRepository) GetDefaultSiteCollectionTermStore(ctx context.Context) (*secondary.TermStoreRecord, error) {
	var store secondary.TermStoreRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM term_stores WHERE is_default = 1 LIMIT 1`,
	).Scan(&store.ID, &store.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("default term store not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default term store: %w", err)
	}
	return &store, nil
}

// ListRoleDefinitions retrieves the permission levels of a web.
func (r *SiteRepository) ListRoleDefinitions(ctx context.Context, webID string) ([]*secondary.RoleDefinitionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, role_type_kind FROM role_definitions WHERE web_id = ? ORDER BY id`,
		webID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list role definitions: %w", err)
	}
	defer rows.Close()

	var roles []*secondary.RoleDefinitionRecord
	for rows.Next() {
		rd := &secondary.RoleDefinitionRecord{}
		if err := rows.Scan(&rd.ID, &rd.Name, &rd.RoleTypeKind); err != nil {
			return nil, fmt.Errorf("failed to scan role definition: %w", err)
		}
		roles = append(roles, rd)
	}
	return roles, rows.Err()
}

// ListSiteGroups retrieves the site groups of the site collection.
func (r *SiteRepository) ListSiteGroups(ctx context.Context) ([]*secondary.SiteGroupRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title FROM site_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list site groups: %w", err)
	}
	defer rows.Close()

	var groups []*secondary.SiteGroupRecord
	for rows.Next() {
		g := &secondary.SiteGroupRecord{}
		if err := rows.Scan(&g.ID, &g.Title); err != nil {
			return nil, fmt.Errorf("failed to scan site group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetAssociatedGroups retrieves the visitor, member and owner groups of a web.
// A web without associations yields an empty record.
func (r *SiteRepository) GetAssociatedGroups(ctx context.Context, webID string) (*secondary.AssociatedGroups, error) {
	var visitor, member, owner sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT visitor_group_id, member_group_id, owner_group_id FROM associated_groups WHERE web_id = ?`,
		webID,
	).Scan(&visitor, &member, &owner)
	if err == sql.ErrNoRows {
		return &secondary.AssociatedGroups{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get associated groups: %w", err)
	}

	assoc := &secondary.AssociatedGroups{}
	for _, slot := range []struct {
		id  sql.NullInt64
		dst **secondary.SiteGroupRecord
	}{{visitor, &assoc.Visitor}, {member, &assoc.Member}, {owner, &assoc.Owner}} {
		if !slot.id.Valid {
			continue
		}
		g := &secondary.SiteGroupRecord{ID: int(slot.id.Int64)}
		if err := r.db.QueryRowContext(ctx, `SELECT title FROM site_groups WHERE id = ?`, g.ID).Scan(&g.Title); err != nil {
			return nil, fmt.Errorf("failed to get site group %d: %w", g.ID, err)
		}
		*slot.dst = g
	}
	return assoc, nil
}

// Commits returns the number of batches committed against the site.
func (r *SiteRepository) Commits(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	return n, nil
}

// Ensure SiteRepository implements the interface
var _ secondary.SiteRepository = (*SiteRepository)(nil)
