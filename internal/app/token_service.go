package app

import (
	"context"
	"fmt"

	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// TokenServiceImpl implements the TokenService interface.
type TokenServiceImpl struct {
	site      secondary.SiteRepository
	templates secondary.TemplateSource
	log       secondary.LogWriter
}

// NewTokenService creates a new TokenService with injected dependencies.
func NewTokenService(site secondary.SiteRepository, templates secondary.TemplateSource, log secondary.LogWriter) *TokenServiceImpl {
	return &TokenServiceImpl{site: site, templates: templates, log: log}
}

// ListTokens discovers and returns every token for a web and template.
// Discovery problems are returned alongside whatever was discovered.
func (s *TokenServiceImpl) ListTokens(ctx context.Context, req primary.TokenRequest) ([]*primary.TokenInfo, error) {
	parser, initErr := s.initParser(ctx, req)
	if parser == nil {
		return nil, initErr
	}

	lookup := siteLookup{site: s.site}
	defs := parser.Tokens()
	infos := make([]*primary.TokenInfo, 0, len(defs))
	for _, d := range defs {
		info := &primary.TokenInfo{
			Kind:     d.Kind().String(),
			Patterns: d.Tokens(),
			Length:   d.TokenLength(),
		}
		if v, err := d.ReplaceValue(ctx, lookup); err != nil {
			info.Err = err.Error()
		} else {
			info.Value = v
		}
		infos = append(infos, info)
	}
	return infos, initErr
}

// Parse substitutes tokens in req.Input and reports leftovers.
func (s *TokenServiceImpl) Parse(ctx context.Context, req primary.TokenRequest) (*primary.ParseResult, error) {
	parser, initErr := s.initParser(ctx, req)
	if parser == nil {
		return nil, initErr
	}

	out, err := parser.ParseStringWithSkip(ctx, req.Input, req.Skip)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	return &primary.ParseResult{
		Output:    out,
		LeftOvers: parser.LeftOverTokens(out),
	}, initErr
}

// initParser returns nil only when nothing could be discovered at all.
func (s *TokenServiceImpl) initParser(ctx context.Context, req primary.TokenRequest) (*TokenParserImpl, error) {
	var tpl *models.Template
	if req.TemplatePath != "" {
		loaded, err := s.templates.Load(ctx, req.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		tpl = loaded
	}

	parser := NewTokenParser(s.site, s.log)
	if err := parser.Init(ctx, req.WebURL, tpl); err != nil {
		if len(parser.Tokens()) == 0 {
			return nil, fmt.Errorf("failed to discover tokens: %w", err)
		}
		return parser, fmt.Errorf("token discovery was incomplete: %w", err)
	}
	return parser, nil
}

// Ensure TokenServiceImpl implements the interface
var _ primary.TokenService = (*TokenServiceImpl)(nil)
