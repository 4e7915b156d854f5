package logsink

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/pnp/internal/ctxutil"
	"github.com/example/pnp/internal/ports/secondary"
)

type recordingRepo struct {
	records []*secondary.RunLogRecord
	err     error
}

func (r *recordingRepo) Create(ctx context.Context, entry *secondary.RunLogRecord) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, entry)
	return nil
}

func (r *recordingRepo) List(ctx context.Context, filters secondary.RunLogFilters) ([]*secondary.RunLogRecord, error) {
	return r.records, nil
}

func (r *recordingRepo) Prune(ctx context.Context, olderThanDays int) (int, error) {
	return 0, nil
}

func TestSlogWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	w := NewSlogWriter(logger)
	ctx := ctxutil.WithRunID(context.Background(), "run-7")

	_ = w.Write(ctx, secondary.LogEntry{Severity: secondary.SeverityInfo, Scope: "SiteFields", Message: "hidden"})
	_ = w.Write(ctx, secondary.LogEntry{Severity: secondary.SeverityWarning, Scope: "SiteFields", Message: "type mismatch"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered: %s", out)
	}
	for _, want := range []string{"level=WARN", "type mismatch", "scope=SiteFields", "run=run-7"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARNING", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRunLogWriter(t *testing.T) {
	repo := &recordingRepo{}
	w := NewRunLogWriter(repo)

	if err := w.Write(context.Background(), secondary.LogEntry{Severity: secondary.SeverityInfo, Message: "outside"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatal("entries outside a run must be dropped")
	}

	ctx := ctxutil.WithRunID(context.Background(), "run-1")
	if err := w.Write(ctx, secondary.LogEntry{Severity: secondary.SeverityError, Scope: "ContentTypes", Message: "boom"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("records = %d, want 1", len(repo.records))
	}
	got := repo.records[0]
	if got.RunID != "run-1" || got.Severity != secondary.SeverityError || got.Scope != "ContentTypes" || got.Message != "boom" {
		t.Errorf("record = %+v", got)
	}
}

func TestMulti(t *testing.T) {
	ok := &recordingRepo{}
	failing := &recordingRepo{err: errors.New("disk full")}
	m := Multi{NewRunLogWriter(ok), nil, NewRunLogWriter(failing)}

	ctx := ctxutil.WithRunID(context.Background(), "run-1")
	err := m.Write(ctx, secondary.LogEntry{Severity: secondary.SeverityInfo, Message: "hello"})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Write() error = %v, want the failing sink's error", err)
	}
	if len(ok.records) != 1 {
		t.Error("healthy sinks still receive the entry")
	}
}
