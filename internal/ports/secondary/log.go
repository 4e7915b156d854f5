package secondary

import "context"

// Severities accepted by LogWriter.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// LogEntry is one message written during a provisioning run.
type LogEntry struct {
	Severity string
	Scope    string // handler or component, e.g. "SiteFields"
	Message  string
}

// LogWriter defines the interface for the provisioning log sink.
// Implementations take the run ID from context.
type LogWriter interface {
	Write(ctx context.Context, entry LogEntry) error
}

// RunLogRepository defines the secondary port for persisted run log entries.
type RunLogRepository interface {
	// Create persists a new entry.
	Create(ctx context.Context, entry *RunLogRecord) error

	// List retrieves entries matching the given filters, newest first.
	List(ctx context.Context, filters RunLogFilters) ([]*RunLogRecord, error)

	// Prune deletes entries older than the given number of days.
	Prune(ctx context.Context, olderThanDays int) (int, error)
}

// RunLogRecord represents a run log entry as stored in persistence.
type RunLogRecord struct {
	ID        int64
	RunID     string
	Severity  string
	Scope     string
	Message   string
	CreatedAt string
}

// RunLogFilters contains filter options for querying run log entries.
type RunLogFilters struct {
	RunID    string
	Severity string
	Limit    int
}
