package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/pnp/internal/ports/primary"
)

// TokenAdapter translates CLI operations to TokenService calls.
type TokenAdapter struct {
	service primary.TokenService
	out     io.Writer
}

// NewTokenAdapter creates a new TokenAdapter with the given service.
func NewTokenAdapter(service primary.TokenService, out io.Writer) *TokenAdapter {
	return &TokenAdapter{
		service: service,
		out:     out,
	}
}

// List prints every discovered token with its resolved value.
// Incomplete discovery is reported after the table.
func (a *TokenAdapter) List(ctx context.Context, req primary.TokenRequest) ([]*primary.TokenInfo, error) {
	tokens, err := a.service.ListTokens(ctx, req)
	if len(tokens) == 0 {
		if err != nil {
			return nil, fmt.Errorf("failed to list tokens: %w", err)
		}
		fmt.Fprintln(a.out, "No tokens found.")
		return tokens, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tTOKEN\tVALUE")
	fmt.Fprintln(w, "----\t-----\t-----")
	for _, t := range tokens {
		value := t.Value
		if t.Err != "" {
			value = color.New(color.FgRed).Sprint("error: " + t.Err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Kind, strings.Join(t.Patterns, " "), value)
	}
	w.Flush()

	if err != nil {
		fmt.Fprintf(a.out, "\n%s %v\n", color.New(color.FgYellow).Sprint("!"), err)
	}
	return tokens, nil
}

// Parse prints the substituted input and any tokens left in it.
func (a *TokenAdapter) Parse(ctx context.Context, req primary.TokenRequest) (*primary.ParseResult, error) {
	res, err := a.service.Parse(ctx, req)
	if res == nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	fmt.Fprintln(a.out, res.Output)
	for _, left := range res.LeftOvers {
		fmt.Fprintf(a.out, "%s unresolved %s\n", color.New(color.FgYellow).Sprint("!"), left)
	}
	if err != nil {
		fmt.Fprintf(a.out, "%s %v\n", color.New(color.FgYellow).Sprint("!"), err)
	}
	return res, nil
}
