package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// LogAdapter translates CLI operations to LogService calls.
type LogAdapter struct {
	service primary.LogService
	out     io.Writer
}

// NewLogAdapter creates a new LogAdapter with the given service.
func NewLogAdapter(service primary.LogService, out io.Writer) *LogAdapter {
	return &LogAdapter{
		service: service,
		out:     out,
	}
}

// Tail prints the newest run log entries, oldest of them first.
func (a *LogAdapter) Tail(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	entries, err := a.service.ListLogs(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No log entries found.")
		return entries, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt, shortRunID(e.RunID), severityLabel(e.Severity), e.Scope, e.Message)
	}
	w.Flush()
	return entries, nil
}

// Prune deletes entries older than the given number of days.
func (a *LogAdapter) Prune(ctx context.Context, olderThanDays int) (int, error) {
	n, err := a.service.PruneLogs(ctx, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to prune logs: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Pruned %d log entries older than %d days\n", n, olderThanDays)
	return n, nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func severityLabel(severity string) string {
	switch severity {
	case secondary.SeverityWarning:
		return color.New(color.FgYellow).Sprint("WARN ")
	case secondary.SeverityError:
		return color.New(color.FgRed).Sprint("ERROR")
	}
	return "INFO "
}
