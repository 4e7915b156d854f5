package app

import (
	"context"
	"fmt"

	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// LogServiceImpl implements the LogService interface.
type LogServiceImpl struct {
	logRepo secondary.RunLogRepository
}

// NewLogService creates a new LogService with injected dependencies.
func NewLogService(logRepo secondary.RunLogRepository) *LogServiceImpl {
	return &LogServiceImpl{
		logRepo: logRepo,
	}
}

// ListLogs retrieves log entries matching the given filters.
func (s *LogServiceImpl) ListLogs(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	records, err := s.logRepo.List(ctx, secondary.RunLogFilters{
		RunID:    filters.RunID,
		Severity: filters.Severity,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	entries := make([]*primary.LogEntry, len(records))
	for i, r := range records {
		entries[i] = recordToLogEntry(r)
	}
	return entries, nil
}

// PruneLogs deletes log entries older than the specified number of days.
func (s *LogServiceImpl) PruneLogs(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("days must not be negative: %d", olderThanDays)
	}
	return s.logRepo.Prune(ctx, olderThanDays)
}

func recordToLogEntry(r *secondary.RunLogRecord) *primary.LogEntry {
	return &primary.LogEntry{
		ID:        r.ID,
		RunID:     r.RunID,
		Severity:  r.Severity,
		Scope:     r.Scope,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
}

// Ensure LogServiceImpl implements the interface
var _ primary.LogService = (*LogServiceImpl)(nil)
