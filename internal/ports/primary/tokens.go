package primary

import "context"

// TokenService defines the primary port for token diagnostics.
type TokenService interface {
	// ListTokens discovers and returns every token for a web and template.
	ListTokens(ctx context.Context, req TokenRequest) ([]*TokenInfo, error)

	// Parse substitutes tokens in req.Input and reports leftovers.
	Parse(ctx context.Context, req TokenRequest) (*ParseResult, error)
}

// TokenRequest contains parameters for token operations.
type TokenRequest struct {
	WebURL       string
	TemplatePath string // optional; contributes parameter tokens
	Input        string
	Skip         []string
}

// TokenInfo describes one registered token.
type TokenInfo struct {
	Kind     string
	Patterns []string
	Length   int
	Value    string
	Err      string // resolution failure, if any
}

// ParseResult contains the substituted text and what was left unresolved.
type ParseResult struct {
	Output    string
	LeftOvers []string
}
