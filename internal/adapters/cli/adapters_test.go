package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

func init() {
	color.NoColor = true
}

// mockProvisioningService implements primary.ProvisioningService for testing
type mockProvisioningService struct {
	applyFn     func(ctx context.Context, req primary.ApplyRequest) (*primary.ApplyResult, error)
	validateErr error
}

func (m *mockProvisioningService) Apply(ctx context.Context, req primary.ApplyRequest) (*primary.ApplyResult, error) {
	return m.applyFn(ctx, req)
}

func (m *mockProvisioningService) Validate(ctx context.Context, templatePath string) error {
	return m.validateErr
}

// mockTokenService implements primary.TokenService for testing
type mockTokenService struct {
	tokens  []*primary.TokenInfo
	parse   *primary.ParseResult
	err     error
	lastReq primary.TokenRequest
}

func (m *mockTokenService) ListTokens(ctx context.Context, req primary.TokenRequest) ([]*primary.TokenInfo, error) {
	m.lastReq = req
	return m.tokens, m.err
}

func (m *mockTokenService) Parse(ctx context.Context, req primary.TokenRequest) (*primary.ParseResult, error) {
	m.lastReq = req
	return m.parse, m.err
}

// mockLogService implements primary.LogService for testing
type mockLogService struct {
	entries     []*primary.LogEntry
	pruned      int
	err         error
	lastFilters primary.LogFilters
}

func (m *mockLogService) ListLogs(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	m.lastFilters = filters
	return m.entries, m.err
}

func (m *mockLogService) PruneLogs(ctx context.Context, olderThanDays int) (int, error) {
	return m.pruned, m.err
}

func sampleResult() *primary.ApplyResult {
	return &primary.ApplyResult{
		RunID: "run-1",
		Handlers: []*primary.ProvisionResult{{
			Handler: "SiteFields",
			Commits: 2,
			Outcomes: []primary.ObjectOutcome{
				{Name: "Foo", ID: "1111", Status: primary.StatusCreated},
				{Name: "Bar", ID: "2222", Status: primary.StatusSkipped, Reason: "type mismatch"},
			},
		}},
		Ignored: []string{"Navigation"},
	}
}

func TestProvisioningAdapter_Apply(t *testing.T) {
	var out bytes.Buffer
	svc := &mockProvisioningService{applyFn: func(ctx context.Context, req primary.ApplyRequest) (*primary.ApplyResult, error) {
		return sampleResult(), nil
	}}
	adapter := NewProvisioningAdapter(svc, &out)

	if _, err := adapter.Apply(context.Background(), primary.ApplyRequest{TemplatePath: "site.json"}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"SiteFields", "Foo", "created", "skipped", "type mismatch", "Navigation", "2 commits", "run-1"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestProvisioningAdapter_ApplyFailurePrintsPartialResult(t *testing.T) {
	var out bytes.Buffer
	svc := &mockProvisioningService{applyFn: func(ctx context.Context, req primary.ApplyRequest) (*primary.ApplyResult, error) {
		return sampleResult(), errors.New("handler SiteFields failed")
	}}
	adapter := NewProvisioningAdapter(svc, &out)

	if _, err := adapter.Apply(context.Background(), primary.ApplyRequest{TemplatePath: "site.json"}); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out.String(), "Foo") {
		t.Errorf("partial result not printed:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Applied") {
		t.Error("a failed run must not report success")
	}
}

func TestProvisioningAdapter_Validate(t *testing.T) {
	var out bytes.Buffer
	adapter := NewProvisioningAdapter(&mockProvisioningService{}, &out)

	if err := adapter.Validate(context.Background(), "site.json"); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !strings.Contains(out.String(), "site.json is valid") {
		t.Errorf("output = %q", out.String())
	}

	adapter = NewProvisioningAdapter(&mockProvisioningService{validateErr: errors.New("bad")}, &out)
	if err := adapter.Validate(context.Background(), "site.json"); err == nil {
		t.Error("expected error")
	}
}

func TestTokenAdapter_List(t *testing.T) {
	var out bytes.Buffer
	svc := &mockTokenService{tokens: []*primary.TokenInfo{
		{Kind: "parameter", Patterns: []string{"<<parameter:owner>>", "<<$owner>>"}, Value: "alice"},
		{Kind: "sitecollectiontermstoreid", Patterns: []string{"<<sitecollectiontermstoreid>>"}, Err: "no term store"},
	}}
	adapter := NewTokenAdapter(svc, &out)

	req := primary.TokenRequest{WebURL: "/projects", TemplatePath: "site.json"}
	if _, err := adapter.List(context.Background(), req); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff(req, svc.lastReq); diff != "" {
		t.Errorf("request not forwarded (-want +got):\n%s", diff)
	}

	got := out.String()
	for _, want := range []string{"<<$owner>>", "alice", "error: no term store"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestTokenAdapter_ListFailsWithoutTokens(t *testing.T) {
	var out bytes.Buffer
	adapter := NewTokenAdapter(&mockTokenService{err: errors.New("web not found")}, &out)

	if _, err := adapter.List(context.Background(), primary.TokenRequest{}); err == nil {
		t.Error("expected error")
	}
}

func TestTokenAdapter_Parse(t *testing.T) {
	var out bytes.Buffer
	svc := &mockTokenService{parse: &primary.ParseResult{Output: "0x0101 {{nope}}", LeftOvers: []string{"{{nope}}"}}}
	adapter := NewTokenAdapter(svc, &out)

	if _, err := adapter.Parse(context.Background(), primary.TokenRequest{Input: "<<contenttypeid:Document>> {{nope}}"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := "0x0101 {{nope}}\n! unresolved {{nope}}\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestLogAdapter_Tail(t *testing.T) {
	var out bytes.Buffer
	svc := &mockLogService{entries: []*primary.LogEntry{
		{RunID: "0123456789abcdef", Severity: secondary.SeverityError, Scope: "ContentTypes", Message: "second", CreatedAt: "2026-10-14T10:00:01Z"},
		{RunID: "0123456789abcdef", Severity: secondary.SeverityInfo, Scope: "SiteFields", Message: "first", CreatedAt: "2026-10-14T10:00:00Z"},
	}}
	adapter := NewLogAdapter(svc, &out)

	if _, err := adapter.Tail(context.Background(), primary.LogFilters{Limit: 2}); err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if svc.lastFilters.Limit != 2 {
		t.Errorf("filters not forwarded: %+v", svc.lastFilters)
	}

	got := out.String()
	if strings.Index(got, "first") > strings.Index(got, "second") {
		t.Errorf("entries should print oldest first:\n%s", got)
	}
	if !strings.Contains(got, "01234567 ") || strings.Contains(got, "89abcdef") {
		t.Errorf("run IDs should be shortened:\n%s", got)
	}
	if !strings.Contains(got, "ERROR") {
		t.Errorf("severity missing:\n%s", got)
	}
}

func TestLogAdapter_Empty(t *testing.T) {
	var out bytes.Buffer
	adapter := NewLogAdapter(&mockLogService{}, &out)

	if _, err := adapter.Tail(context.Background(), primary.LogFilters{}); err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if !strings.Contains(out.String(), "No log entries found.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestLogAdapter_Prune(t *testing.T) {
	var out bytes.Buffer
	adapter := NewLogAdapter(&mockLogService{pruned: 3}, &out)

	n, err := adapter.Prune(context.Background(), 30)
	if err != nil || n != 3 {
		t.Errorf("Prune() = %d, %v", n, err)
	}
	if !strings.Contains(out.String(), "Pruned 3") {
		t.Errorf("output = %q", out.String())
	}
}
