package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/core/taxonomy"
)

// ValidateTaxonomyValue resolves each value against the term store and the
// site's hidden taxonomy list, adding hidden list entries for terms used on
// this site for the first time. The result carries the site-local wssIds and
// the term store labels.
func (r *SiteRepository) ValidateTaxonomyValue(ctx context.Context, webID, fieldID string, values []taxonomy.Value) (string, error) {
	f, err := r.GetField(ctx, webID, fieldID)
	if err != nil {
		return "", err
	}
	if !taxonomy.IsTaxonomyType(f.TypeAsString) {
		return "", fmt.Errorf("field %s is not a taxonomy field", f.InternalName)
	}
	if len(values) > 1 && !taxonomy.IsMulti(f.TypeAsString) {
		return "", fmt.Errorf("field %s accepts a single value", f.InternalName)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin validation: %w", err)
	}
	defer tx.Rollback()

	out := make([]taxonomy.Value, len(values))
	for i, v := range values {
		resolved, err := resolveTerm(ctx, tx, v)
		if err != nil {
			return "", err
		}
		out[i] = resolved
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit validation: %w", err)
	}
	return taxonomy.Format(out), nil
}

func resolveTerm(ctx context.Context, tx *sql.Tx, v taxonomy.Value) (taxonomy.Value, error) {
	termID := guid.Normalize(v.TermGUID)
	if termID == "" {
		// The bare wssId form only makes sense for terms already on the site.
		err := tx.QueryRowContext(ctx,
			`SELECT term_id FROM taxonomy_hidden_list WHERE wss_id = ?`, v.WssID,
		).Scan(&termID)
		if err == sql.ErrNoRows {
			return taxonomy.Value{}, fmt.Errorf("wssId %d not found", v.WssID)
		}
		if err != nil {
			return taxonomy.Value{}, fmt.Errorf("failed to look up wssId: %w", err)
		}
	}

	var label string
	err := tx.QueryRowContext(ctx, `SELECT label FROM terms WHERE id = ?`, termID).Scan(&label)
	if err == sql.ErrNoRows {
		return taxonomy.Value{}, fmt.Errorf("term %s not found", termID)
	}
	if err != nil {
		return taxonomy.Value{}, fmt.Errorf("failed to get term: %w", err)
	}

	var wssID int
	err = tx.QueryRowContext(ctx,
		`SELECT wss_id FROM taxonomy_hidden_list WHERE term_id = ?`, termID,
	).Scan(&wssID)
	if err == sql.ErrNoRows {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO taxonomy_hidden_list (term_id, label) VALUES (?, ?)`, termID, label,
		)
		if err != nil {
			return taxonomy.Value{}, fmt.Errorf("failed to add hidden list entry: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return taxonomy.Value{}, fmt.Errorf("failed to read wssId: %w", err)
		}
		wssID = int(id)
	} else if err != nil {
		return taxonomy.Value{}, fmt.Errorf("failed to look up hidden list: %w", err)
	}

	return taxonomy.Value{WssID: wssID, Label: label, TermGUID: termID}, nil
}
