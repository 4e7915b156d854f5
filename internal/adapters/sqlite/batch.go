package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/core/schema"
	"github.com/example/pnp/internal/ports/secondary"
)

// ExecuteBatch applies a batch of effects to a web in one transaction and
// records one commit. A failing effect rolls the whole batch back.
func (r *SiteRepository) ExecuteBatch(ctx context.Context, webID string, batch []effects.Effect) (*secondary.BatchResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	b := &batchTx{ctx: ctx, tx: tx, webID: webID, result: &secondary.BatchResult{}}
	for _, eff := range batch {
		if err := b.apply(eff); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO commits (web_id, effect_count) VALUES (?, ?)`, webID, len(batch)); err != nil {
		return nil, fmt.Errorf("failed to record commit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return b.result, nil
}

// batchTx applies effects inside one open transaction.
type batchTx struct {
	ctx    context.Context
	tx     *sql.Tx
	webID  string
	result *secondary.BatchResult
}

func (b *batchTx) apply(eff effects.Effect) error {
	switch e := eff.(type) {
	case effects.FieldEffect:
		switch e.Operation {
		case effects.OpCreate:
			return b.createField(e)
		case effects.OpUpdateSchema:
			return b.updateFieldSchema(e)
		case effects.OpSetDefault:
			return b.setFieldDefault(e)
		}
	case effects.ContentTypeEffect:
		switch e.Operation {
		case effects.OpCreate:
			return b.createContentType(e)
		case effects.OpUpdate:
			return b.updateContentType(e.ContentTypeID, e.Changes)
		case effects.OpDelete:
			return b.deleteContentType(e)
		}
	case effects.FieldLinkEffect:
		switch e.Operation {
		case effects.OpAdd:
			return b.addFieldLink(e)
		case effects.OpUpdate:
			return b.updateFieldLink(e)
		case effects.OpReorder:
			return b.reorderFieldLinks(e)
		}
	}
	return fmt.Errorf("unsupported effect %s", describe(eff))
}

func describe(eff effects.Effect) string {
	switch e := eff.(type) {
	case effects.FieldEffect:
		return "field " + e.Operation
	case effects.ContentTypeEffect:
		return "content type " + e.Operation
	case effects.FieldLinkEffect:
		return "field link " + e.Operation
	}
	return fmt.Sprintf("%T", eff)
}

// storedField is a field schema as the site materializes it.
type storedField struct {
	id, internalName, title, typ, group, defaultValue string
	version                                           int
	schemaXML                                         string
}

// materializeField derives the stored columns from a schema and stamps the
// given version on it.
func materializeField(schemaXML string, version int) (*storedField, error) {
	el, err := schema.ParseField(schemaXML)
	if err != nil {
		return nil, fmt.Errorf("invalid field schema: %w", err)
	}

	f := &storedField{version: version}
	id, _ := el.Attr("ID")
	if id == "" {
		id = guid.New()
		el.SetAttr("ID", "{"+id+"}")
	}
	f.id = guid.Normalize(id)
	f.typ, _ = el.Attr("Type")
	f.group, _ = el.Attr("Group")

	f.title, _ = el.Attr("Title")
	if f.title == "" {
		f.title, _ = el.Attr("DisplayName")
	}
	f.internalName, _ = el.Attr("Name")
	if f.internalName == "" {
		f.internalName, _ = el.Attr("StaticName")
	}
	if f.internalName == "" {
		f.internalName = internalNameFromTitle(f.title)
	}
	if f.internalName == "" {
		return nil, fmt.Errorf("field %s has neither a name nor a title", f.id)
	}

	for _, c := range el.Children {
		if c.Name == "Default" {
			f.defaultValue = c.Text
		}
	}

	el.SetAttr("Version", strconv.Itoa(version))
	f.schemaXML = el.String()
	return f, nil
}

// internalNameFromTitle keeps the letters and digits of a title.
func internalNameFromTitle(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (b *batchTx) createField(e effects.FieldEffect) error {
	f, err := materializeField(e.SchemaXML, 1)
	if err != nil {
		return err
	}

	var exists int
	if err := b.tx.QueryRowContext(b.ctx,
		`SELECT COUNT(*) FROM fields WHERE web_id = ? AND (id = ? OR internal_name = ?)`,
		b.webID, f.id, f.internalName,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check field: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("field %s (%s) already exists", f.internalName, f.id)
	}

	_, err = b.tx.ExecContext(b.ctx,
		`INSERT INTO fields (id, web_id, internal_name, title, type_as_string, field_group, default_value, schema_xml, version) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.id, b.webID, f.internalName, f.title, f.typ, nullIfEmpty(f.group), nullIfEmpty(f.defaultValue), f.schemaXML, f.version,
	)
	if err != nil {
		return fmt.Errorf("failed to create field: %w", err)
	}

	b.result.Created = append(b.result.Created, secondary.CreatedObject{
		Kind: secondary.CreatedField,
		Name: f.internalName,
		ID:   f.id,
	})
	return nil
}

func (b *batchTx) updateFieldSchema(e effects.FieldEffect) error {
	id := guid.Normalize(e.FieldID)
	var version int
	err := b.tx.QueryRowContext(b.ctx,
		`SELECT version FROM fields WHERE web_id = ? AND id = ?`, b.webID, id,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return fmt.Errorf("field %s not found", e.FieldID)
	}
	if err != nil {
		return fmt.Errorf("failed to get field: %w", err)
	}

	f, err := materializeField(e.SchemaXML, version+1)
	if err != nil {
		return err
	}
	if f.id != id {
		return fmt.Errorf("schema of field %s declares a different ID %s", id, f.id)
	}

	_, err = b.tx.ExecContext(b.ctx,
		`UPDATE fields SET internal_name = ?, title = ?, type_as_string = ?, field_group = ?, default_value = ?, schema_xml = ?, version = ?, updated_at = CURRENT_TIMESTAMP WHERE web_id = ? AND id = ?`,
		f.internalName, f.title, f.typ, nullIfEmpty(f.group), nullIfEmpty(f.defaultValue), f.schemaXML, f.version, b.webID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update field schema: %w", err)
	}
	return nil
}

func (b *batchTx) setFieldDefault(e effects.FieldEffect) error {
	res, err := b.tx.ExecContext(b.ctx,
		`UPDATE fields SET default_value = ?, updated_at = CURRENT_TIMESTAMP WHERE web_id = ? AND id = ?`,
		nullIfEmpty(e.DefaultValue), b.webID, guid.Normalize(e.FieldID),
	)
	if err != nil {
		return fmt.Errorf("failed to set field default: %w", err)
	}
	return requireAffected(res, "field "+e.FieldID)
}

func (b *batchTx) createContentType(e effects.ContentTypeEffect) error {
	id := e.ContentTypeID
	if id == "" {
		if e.ParentID == "" {
			return fmt.Errorf("content type %s needs a parent or an explicit ID", e.Name)
		}
		id = e.ParentID + "00" + guid.Compact(guid.New())
	}

	_, err := b.tx.ExecContext(b.ctx,
		`INSERT INTO content_types (id, web_id, name, description, ct_group) VALUES (?, ?, ?, ?, ?)`,
		id, b.webID, e.Name, nullIfEmpty(e.Description), nullIfEmpty(e.Group),
	)
	if err != nil {
		return fmt.Errorf("failed to create content type %s: %w", e.Name, err)
	}

	// Children start out with the links of their parent.
	if e.ParentID != "" {
		_, err = b.tx.ExecContext(b.ctx,
			`INSERT INTO field_links (web_id, content_type_id, field_id, name, required, hidden, position)
			 SELECT web_id, ?, field_id, name, required, hidden, position FROM field_links
			 WHERE web_id = ? AND content_type_id = ? COLLATE NOCASE`,
			id, b.webID, e.ParentID,
		)
		if err != nil {
			return fmt.Errorf("failed to inherit field links: %w", err)
		}
	}

	if err := b.updateContentType(id, e.Changes); err != nil {
		return err
	}

	b.result.Created = append(b.result.Created, secondary.CreatedObject{
		Kind: secondary.CreatedContentType,
		Name: e.Name,
		ID:   id,
	})
	return nil
}

var contentTypeColumnsByProp = map[string]string{
	effects.PropName:             "name",
	effects.PropDescription:      "description",
	effects.PropGroup:            "ct_group",
	effects.PropHidden:           "hidden",
	effects.PropSealed:           "sealed",
	effects.PropReadOnly:         "read_only",
	effects.PropNewFormURL:       "new_form_url",
	effects.PropEditFormURL:      "edit_form_url",
	effects.PropDisplayFormURL:   "display_form_url",
	effects.PropDocumentTemplate: "document_template",
}

var boolColumns = map[string]bool{"hidden": true, "sealed": true, "read_only": true}

func (b *batchTx) updateContentType(id string, changes []effects.PropertyChange) error {
	if len(changes) == 0 {
		return nil
	}

	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+2)
	for _, c := range changes {
		col, ok := contentTypeColumnsByProp[c.Property]
		if !ok {
			return fmt.Errorf("unknown content type property %s", c.Property)
		}
		sets = append(sets, col+" = ?")
		if boolColumns[col] {
			v, err := strconv.ParseBool(c.Value)
			if err != nil {
				return fmt.Errorf("invalid value %q for %s: %w", c.Value, c.Property, err)
			}
			args = append(args, v)
		} else {
			args = append(args, c.Value)
		}
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, b.webID, id)

	res, err := b.tx.ExecContext(b.ctx,
		`UPDATE content_types SET `+strings.Join(sets, ", ")+` WHERE web_id = ? AND id = ? COLLATE NOCASE`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update content type: %w", err)
	}
	return requireAffected(res, "content type "+id)
}

func (b *batchTx) deleteContentType(e effects.ContentTypeEffect) error {
	if _, err := b.tx.ExecContext(b.ctx,
		`DELETE FROM field_links WHERE web_id = ? AND content_type_id = ? COLLATE NOCASE`, b.webID, e.ContentTypeID,
	); err != nil {
		return fmt.Errorf("failed to delete field links: %w", err)
	}
	res, err := b.tx.ExecContext(b.ctx,
		`DELETE FROM content_types WHERE web_id = ? AND id = ? COLLATE NOCASE`, b.webID, e.ContentTypeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete content type: %w", err)
	}
	return requireAffected(res, "content type "+e.ContentTypeID)
}

// contentTypeKey returns the stored identifier of a content type.
func (b *batchTx) contentTypeKey(id string) (string, error) {
	var stored string
	err := b.tx.QueryRowContext(b.ctx,
		`SELECT id FROM content_types WHERE web_id = ? AND id = ? COLLATE NOCASE`, b.webID, id,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("content type %s not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content type: %w", err)
	}
	return stored, nil
}

func (b *batchTx) addFieldLink(e effects.FieldLinkEffect) error {
	ctID, err := b.contentTypeKey(e.ContentTypeID)
	if err != nil {
		return err
	}

	fieldID := guid.Normalize(e.FieldID)
	var name string
	err = b.tx.QueryRowContext(b.ctx, `
		SELECT f.internal_name FROM fields f
		JOIN webs w ON w.id = f.web_id
		WHERE f.id = ? AND (f.web_id = ? OR w.parent_id IS NULL)
		ORDER BY w.parent_id IS NULL LIMIT 1`,
		fieldID, b.webID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("field %s not found", e.FieldID)
	}
	if err != nil {
		return fmt.Errorf("failed to get field: %w", err)
	}

	_, err = b.tx.ExecContext(b.ctx, `
		INSERT INTO field_links (web_id, content_type_id, field_id, name, required, hidden, position)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM field_links WHERE web_id = ? AND content_type_id = ?))`,
		b.webID, ctID, fieldID, name, e.Required, e.Hidden, b.webID, ctID,
	)
	if err != nil {
		return fmt.Errorf("failed to add field link: %w", err)
	}
	return nil
}

func (b *batchTx) updateFieldLink(e effects.FieldLinkEffect) error {
	ctID, err := b.contentTypeKey(e.ContentTypeID)
	if err != nil {
		return err
	}
	res, err := b.tx.ExecContext(b.ctx,
		`UPDATE field_links SET required = ?, hidden = ? WHERE web_id = ? AND content_type_id = ? AND field_id = ?`,
		e.Required, e.Hidden, b.webID, ctID, guid.Normalize(e.FieldID),
	)
	if err != nil {
		return fmt.Errorf("failed to update field link: %w", err)
	}
	return requireAffected(res, "field link "+e.FieldID)
}

// reorderFieldLinks positions the named links first, in order; links not
// named keep their relative order after them.
func (b *batchTx) reorderFieldLinks(e effects.FieldLinkEffect) error {
	ctID, err := b.contentTypeKey(e.ContentTypeID)
	if err != nil {
		return err
	}

	rows, err := b.tx.QueryContext(b.ctx,
		`SELECT field_id, name FROM field_links WHERE web_id = ? AND content_type_id = ? ORDER BY position`,
		b.webID, ctID,
	)
	if err != nil {
		return fmt.Errorf("failed to list field links: %w", err)
	}
	type link struct{ fieldID, name string }
	var links []link
	for rows.Next() {
		var l link
		if err := rows.Scan(&l.fieldID, &l.name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan field link: %w", err)
		}
		links = append(links, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list field links: %w", err)
	}

	placed := make(map[string]bool, len(links))
	ordered := make([]link, 0, len(links))
	for _, name := range e.Order {
		for _, l := range links {
			if !placed[l.fieldID] && strings.EqualFold(l.name, name) {
				placed[l.fieldID] = true
				ordered = append(ordered, l)
			}
		}
	}
	for _, l := range links {
		if !placed[l.fieldID] {
			ordered = append(ordered, l)
		}
	}

	for pos, l := range ordered {
		if _, err := b.tx.ExecContext(b.ctx,
			`UPDATE field_links SET position = ? WHERE web_id = ? AND content_type_id = ? AND field_id = ?`,
			pos, b.webID, ctID, l.fieldID,
		); err != nil {
			return fmt.Errorf("failed to reorder field links: %w", err)
		}
	}
	return nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found", what)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
