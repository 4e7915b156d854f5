package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/pnp/internal/ports/secondary"
)

// RunLogRepository implements secondary.RunLogRepository with SQLite.
type RunLogRepository struct {
	db *sql.DB
}

// NewRunLogRepository creates a new SQLite run log repository.
func NewRunLogRepository(db *sql.DB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

// Create persists a new run log entry and sets its ID.
func (r *RunLogRepository) Create(ctx context.Context, entry *secondary.RunLogRecord) error {
	var scope sql.NullString
	if entry.Scope != "" {
		scope = sql.NullString{String: entry.Scope, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO run_log (run_id, severity, scope, message) VALUES (?, ?, ?, ?)`,
		entry.RunID,
		entry.Severity,
		scope,
		entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to create run log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run log entry id: %w", err)
	}
	entry.ID = id
	return nil
}

// List retrieves log entries matching the given filters, newest first.
func (r *RunLogRepository) List(ctx context.Context, filters secondary.RunLogFilters) ([]*secondary.RunLogRecord, error) {
	query := `SELECT id, run_id, severity, scope, message, created_at FROM run_log WHERE 1=1`
	args := []any{}

	if filters.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, filters.RunID)
	}

	if filters.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filters.Severity)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list run log: %w", err)
	}
	defer rows.Close()

	var logs []*secondary.RunLogRecord
	for rows.Next() {
		var (
			scope     sql.NullString
			createdAt time.Time
		)

		record := &secondary.RunLogRecord{}
		err := rows.Scan(&record.ID,
			&record.RunID,
			&record.Severity,
			&scope,
			&record.Message,
			&createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run log entry: %w", err)
		}
		record.Scope = scope.String
		record.CreatedAt = createdAt.Format(time.RFC3339)

		logs = append(logs, record)
	}

	return logs, rows.Err()
}

// Prune deletes log entries older than the given number of days.
func (r *RunLogRepository) Prune(ctx context.Context, olderThanDays int) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM run_log WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", olderThanDays),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune run log: %w", err)
	}

	count, _ := result.RowsAffected()
	return int(count), nil
}

// Ensure RunLogRepository implements the interface
var _ secondary.RunLogRepository = (*RunLogRepository)(nil)
