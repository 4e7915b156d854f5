package app

import (
	"context"
	"fmt"

	"github.com/example/pnp/internal/ports/secondary"
)

// scopedLogger writes provisioning log entries under one scope.
// A nil writer discards everything. Sink failures never fail a run.
type scopedLogger struct {
	w     secondary.LogWriter
	scope string
}

func newScopedLogger(w secondary.LogWriter, scope string) scopedLogger {
	return scopedLogger{w: w, scope: scope}
}

func (l scopedLogger) write(ctx context.Context, severity, format string, args ...any) {
	if l.w == nil {
		return
	}
	_ = l.w.Write(ctx, secondary.LogEntry{
		Severity: severity,
		Scope:    l.scope,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l scopedLogger) infof(ctx context.Context, format string, args ...any) {
	l.write(ctx, secondary.SeverityInfo, format, args...)
}

func (l scopedLogger) warnf(ctx context.Context, format string, args ...any) {
	l.write(ctx, secondary.SeverityWarning, format, args...)
}

func (l scopedLogger) errorf(ctx context.Context, format string, args ...any) {
	l.write(ctx, secondary.SeverityError, format, args...)
}
