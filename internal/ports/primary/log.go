package primary

import "context"

// LogService defines the primary port for provisioning run log operations.
type LogService interface {
	// ListLogs retrieves log entries matching the given filters.
	ListLogs(ctx context.Context, filters LogFilters) ([]*LogEntry, error)

	// PruneLogs deletes log entries older than the specified number of days.
	PruneLogs(ctx context.Context, olderThanDays int) (int, error)
}

// LogEntry represents a run log entry at the port boundary.
type LogEntry struct {
	ID        int64
	RunID     string
	Severity  string
	Scope     string
	Message   string
	CreatedAt string
}

// LogFilters contains filter options for querying logs.
type LogFilters struct {
	RunID    string
	Severity string
	Limit    int
}
