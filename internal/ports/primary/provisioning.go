// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the CLI drives the provisioning engine.
package primary

import (
	"context"

	"github.com/example/pnp/internal/core/token"
	"github.com/example/pnp/internal/models"
)

// ProvisioningService defines the primary port for applying templates.
type ProvisioningService interface {
	// Apply reconciles the target web against a template.
	Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error)

	// Validate checks a template without touching the site.
	Validate(ctx context.Context, templatePath string) error
}

// ApplyRequest contains parameters for applying a template.
type ApplyRequest struct {
	TemplatePath string
	WebURL       string // server-relative; "" means the root web
}

// ApplyResult contains the outcome of one provisioning run.
type ApplyResult struct {
	RunID    string
	WebURL   string
	Handlers []*ProvisionResult
	Ignored  []string // template sections no handler knows
}

// Commits returns the number of commits issued across all handlers.
func (r *ApplyResult) Commits() int {
	n := 0
	for _, h := range r.Handlers {
		n += h.Commits
	}
	return n
}

// Outcome statuses.
const (
	StatusCreated   = "created"
	StatusUpdated   = "updated"
	StatusRecreated = "recreated"
	StatusUnchanged = "unchanged"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ObjectOutcome is the result for one declared object.
type ObjectOutcome struct {
	Name   string
	ID     string
	Status string
	Reason string
}

// ProvisionResult is the result of one handler family.
type ProvisionResult struct {
	Handler  string
	Outcomes []ObjectOutcome
	Commits  int
}

// Count returns how many outcomes have the given status.
func (r *ProvisionResult) Count(status string) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// TokenParser defines the primary port of the token engine. One parser is
// shared by every handler within a run.
type TokenParser interface {
	// Init discovers every token of the web at webURL and the template.
	Init(ctx context.Context, webURL string, tpl *models.Template) error

	// ParseString substitutes every known token in s.
	ParseString(ctx context.Context, s string) (string, error)

	// ParseStringWithSkip substitutes tokens, leaving the listed patterns untouched.
	ParseStringWithSkip(ctx context.Context, s string, skip []string) (string, error)

	// AddToken registers a token discovered mid-run.
	AddToken(d *token.Definition)

	// Rebase rebinds every token to the web at webURL and clears cached values.
	Rebase(ctx context.Context, webURL string) error

	// LeftOverTokens returns the bracket tokens still present in s.
	LeftOverTokens(s string) []string

	// Tokens returns the registered definitions in their sorted order.
	Tokens() []*token.Definition

	// Web returns the web the parser is bound to.
	Web() token.WebRef
}

// FieldProvisioner reconciles declared site fields.
type FieldProvisioner interface {
	ProvisionObjects(ctx context.Context, fields []*models.Field, parser TokenParser) (*ProvisionResult, error)
}

// ContentTypeProvisioner reconciles declared content types.
type ContentTypeProvisioner interface {
	ProvisionObjects(ctx context.Context, contentTypes []*models.ContentType, parser TokenParser) (*ProvisionResult, error)
}
