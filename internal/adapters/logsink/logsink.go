// Package logsink contains the LogWriter implementations provisioning runs
// write to: a structured console logger, the persistent run log, and a
// fan-out over several sinks.
package logsink

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/example/pnp/internal/ctxutil"
	"github.com/example/pnp/internal/ports/secondary"
)

// SlogWriter implements secondary.LogWriter on top of a *slog.Logger.
type SlogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter creates a LogWriter that forwards entries to logger.
func NewSlogWriter(logger *slog.Logger) *SlogWriter {
	return &SlogWriter{logger: logger}
}

// Write logs entry at the slog level matching its severity.
func (w *SlogWriter) Write(ctx context.Context, entry secondary.LogEntry) error {
	attrs := []any{"scope", entry.Scope}
	if runID := ctxutil.RunIDFromContext(ctx); runID != "" {
		attrs = append(attrs, "run", runID)
	}
	w.logger.Log(ctx, Level(entry.Severity), entry.Message, attrs...)
	return nil
}

// Level maps a severity to its slog level. Unknown severities log at info.
func Level(severity string) slog.Level {
	switch severity {
	case secondary.SeverityWarning:
		return slog.LevelWarn
	case secondary.SeverityError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParseLevel maps a configured level name ("debug", "info", "warn",
// "warning", "error") to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}
	var level slog.Level
	err := level.UnmarshalText([]byte(name))
	return level, err
}

// RunLogWriter implements secondary.LogWriter by persisting entries into the
// run log. Entries written outside a run are dropped.
type RunLogWriter struct {
	repo secondary.RunLogRepository
}

// NewRunLogWriter creates a new RunLogWriter.
func NewRunLogWriter(repo secondary.RunLogRepository) *RunLogWriter {
	return &RunLogWriter{repo: repo}
}

// Write persists entry under the run ID carried by ctx.
func (w *RunLogWriter) Write(ctx context.Context, entry secondary.LogEntry) error {
	runID := ctxutil.RunIDFromContext(ctx)
	if runID == "" {
		// No run context - skip logging
		return nil
	}

	return w.repo.Create(ctx, &secondary.RunLogRecord{
		RunID:    runID,
		Severity: entry.Severity,
		Scope:    entry.Scope,
		Message:  entry.Message,
	})
}

// Multi fans entries out to several writers.
type Multi []secondary.LogWriter

// Write writes entry to every writer, joining their errors.
func (m Multi) Write(ctx context.Context, entry secondary.LogEntry) error {
	var errs []error
	for _, w := range m {
		if w == nil {
			continue
		}
		if err := w.Write(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure the writers implement the interface
var (
	_ secondary.LogWriter = (*SlogWriter)(nil)
	_ secondary.LogWriter = (*RunLogWriter)(nil)
	_ secondary.LogWriter = Multi(nil)
)
