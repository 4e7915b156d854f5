package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/example/pnp/internal/core/token"
	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// Fixed group token names for a web's associated groups.
const (
	associatedVisitorGroup = "associatedvisitorgroup"
	associatedMemberGroup  = "associatedmembergroup"
	associatedOwnerGroup   = "associatedownergroup"
)

// TokenParserImpl implements the TokenParser interface.
type TokenParserImpl struct {
	site secondary.SiteRepository
	log  scopedLogger

	mu     sync.Mutex
	web    token.WebRef
	tokens []*token.Definition
}

// NewTokenParser creates a new TokenParser with injected dependencies.
func NewTokenParser(site secondary.SiteRepository, log secondary.LogWriter) *TokenParserImpl {
	return &TokenParserImpl{
		site: site,
		log:  newScopedLogger(log, "TokenParser"),
	}
}

// discoveryStep fetches the tokens of one source.
type discoveryStep struct {
	name string
	run  func(ctx context.Context) ([]*token.Definition, error)
}

// Init discovers every token of the web at webURL and of tpl.
//
// The discovery steps run concurrently and Init returns only once all of them
// have finished. Per-item problems are logged and skipped; failed steps are
// logged and their errors joined into the result. Tokens are kept in step
// order, then sorted by length.
func (p *TokenParserImpl) Init(ctx context.Context, webURL string, tpl *models.Template) error {
	web, root, err := p.loadWebs(ctx, webURL)
	if err != nil {
		return err
	}
	ref := webRef(web)

	p.mu.Lock()
	p.web = ref
	p.tokens = nil
	p.mu.Unlock()

	steps := []discoveryStep{
		{"site collection term store", func(ctx context.Context) ([]*token.Definition, error) {
			return []*token.Definition{token.NewSiteCollectionTermStoreID(ref)}, nil
		}},
		{"lists", func(ctx context.Context) ([]*token.Definition, error) {
			return p.discoverLists(ctx, web, root)
		}},
		{"content types", func(ctx context.Context) ([]*token.Definition, error) {
			return p.discoverContentTypes(ctx, root)
		}},
		{"parameters", func(ctx context.Context) ([]*token.Definition, error) {
			return discoverParameters(ref, tpl), nil
		}},
		{"term stores", func(ctx context.Context) ([]*token.Definition, error) {
			return p.discoverTermStores(ctx, ref)
		}},
		{"fields", func(ctx context.Context) ([]*token.Definition, error) {
			return p.discoverFields(ctx, ref, web, root)
		}},
		{"role definitions", func(ctx context.Context) ([]*token.Definition, error) {
			return p.discoverRoleDefinitions(ctx, ref, web)
		}},
		{"groups", func(ctx context.Context) ([]*token.Definition, error) {
			return p.discoverGroups(ctx, ref, web)
		}},
	}

	slots := make([][]*token.Definition, len(steps))
	errs := make([]error, len(steps))
	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			defs, err := step.run(ctx)
			slots[i] = defs
			if err != nil {
				p.log.errorf(ctx, "token discovery of %s failed: %v", step.name, err)
				errs[i] = fmt.Errorf("failed to discover %s: %w", step.name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []*token.Definition
	for _, defs := range slots {
		all = append(all, defs...)
	}
	token.Sort(all)

	p.mu.Lock()
	p.tokens = all
	p.mu.Unlock()

	p.log.infof(ctx, "discovered %d tokens for %s", len(all), ref.ServerRelativeURL)
	return errors.Join(errs...)
}

func (p *TokenParserImpl) loadWebs(ctx context.Context, webURL string) (*secondary.WebRecord, *secondary.WebRecord, error) {
	root, err := p.site.GetRootWeb(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load root web: %w", err)
	}
	if webURL == "" || webURL == root.ServerRelativeURL {
		return root, root, nil
	}
	web, err := p.site.GetWeb(ctx, webURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load web %s: %w", webURL, err)
	}
	return web, root, nil
}

func (p *TokenParserImpl) discoverLists(ctx context.Context, web, root *secondary.WebRecord) ([]*token.Definition, error) {
	webs := []*secondary.WebRecord{web}
	if !web.IsRoot && root.ID != web.ID {
		webs = append(webs, root)
	}

	var defs []*token.Definition
	for _, w := range webs {
		lists, err := p.site.ListLists(ctx, w.ID)
		if err != nil {
			return defs, err
		}
		ref := webRef(w)
		for _, l := range lists {
			if l.Title == "" {
				p.log.warnf(ctx, "skipping list %s without a title", l.ID)
				continue
			}
			defs = append(defs,
				token.NewListID(ref, l.Title, l.ID),
				token.NewListURL(ref, l.Title, relativeURL(w.ServerRelativeURL, l.RootFolderURL)))
		}
	}
	return defs, nil
}

// discoverContentTypes binds content type tokens to the root web, where the
// content types live.
func (p *TokenParserImpl) discoverContentTypes(ctx context.Context, root *secondary.WebRecord) ([]*token.Definition, error) {
	cts, err := p.site.ListContentTypes(ctx, root.ID)
	if err != nil {
		return nil, err
	}
	ref := webRef(root)
	defs := make([]*token.Definition, 0, len(cts))
	for _, ct := range cts {
		if ct.Name == "" || ct.ID == "" {
			p.log.warnf(ctx, "skipping content type %q without a name or id", ct.ID)
			continue
		}
		defs = append(defs, token.NewContentTypeID(ref, ct.Name, ct.ID))
	}
	return defs, nil
}

func discoverParameters(ref token.WebRef, tpl *models.Template) []*token.Definition {
	if tpl == nil {
		return nil
	}
	defs := make([]*token.Definition, 0, len(tpl.Parameters))
	for _, param := range tpl.Parameters {
		defs = append(defs, token.NewParameter(ref, param.Key, param.Value))
	}
	return defs
}

func (p *TokenParserImpl) discoverTermStores(ctx context.Context, ref token.WebRef) ([]*token.Definition, error) {
	stores, err := p.site.ListTermStores(ctx)
	if err != nil {
		return nil, err
	}
	var defs []*token.Definition
	for _, store := range stores {
		defs = append(defs, token.NewTermStoreID(ref, store.Name, store.ID))
		for _, group := range store.Groups {
			for _, set := range group.TermSets {
				defs = append(defs, token.NewTermSetID(ref, group.Name, set.Name, set.ID))
			}
		}
	}
	return defs, nil
}

func (p *TokenParserImpl) discoverFields(ctx context.Context, ref token.WebRef, web, root *secondary.WebRecord) ([]*token.Definition, error) {
	webIDs := []string{web.ID}
	if root.ID != web.ID {
		webIDs = append(webIDs, root.ID)
	}

	var defs []*token.Definition
	for _, id := range webIDs {
		fields, err := p.site.ListFields(ctx, id)
		if err != nil {
			return defs, err
		}
		for _, f := range fields {
			if f.InternalName == "" {
				p.log.warnf(ctx, "skipping field %s without an internal name", f.ID)
				continue
			}
			defs = append(defs, token.NewFieldTitle(ref, f.InternalName, f.Title))
		}
	}
	return defs, nil
}

func (p *TokenParserImpl) discoverRoleDefinitions(ctx context.Context, ref token.WebRef, web *secondary.WebRecord) ([]*token.Definition, error) {
	roles, err := p.site.ListRoleDefinitions(ctx, web.ID)
	if err != nil {
		return nil, err
	}
	var defs []*token.Definition
	for _, r := range roles {
		if r.RoleTypeKind == "" || strings.EqualFold(r.RoleTypeKind, "None") {
			continue
		}
		defs = append(defs, token.NewRoleDefinition(ref, r.RoleTypeKind, r.Name))
	}
	return defs, nil
}

func (p *TokenParserImpl) discoverGroups(ctx context.Context, ref token.WebRef, web *secondary.WebRecord) ([]*token.Definition, error) {
	groups, err := p.site.ListSiteGroups(ctx)
	if err != nil {
		return nil, err
	}
	var defs []*token.Definition
	for _, g := range groups {
		defs = append(defs, token.NewGroupID(ref, g.Title, g.ID))
	}

	assoc, err := p.site.GetAssociatedGroups(ctx, web.ID)
	if err != nil {
		return defs, err
	}
	for _, fixed := range []struct {
		name  string
		group *secondary.SiteGroupRecord
	}{
		{associatedVisitorGroup, assoc.Visitor},
		{associatedMemberGroup, assoc.Member},
		{associatedOwnerGroup, assoc.Owner},
	} {
		if fixed.group != nil {
			defs = append(defs, token.NewGroupID(ref, fixed.name, fixed.group.ID))
		}
	}
	return defs, nil
}

// ParseString substitutes every known token in s.
func (p *TokenParserImpl) ParseString(ctx context.Context, s string) (string, error) {
	return p.ParseStringWithSkip(ctx, s, nil)
}

// ParseStringWithSkip substitutes tokens in one pass, leaving the patterns in
// skip untouched. Input without <<...>> syntax is returned as is. A token
// whose value cannot be resolved is logged and left in place.
func (p *TokenParserImpl) ParseStringWithSkip(ctx context.Context, s string, skip []string) (string, error) {
	if !token.HasAngleTokens(s) {
		return s, nil
	}

	defs := p.Tokens()
	lookup := siteLookup{site: p.site}
	resolved := make([]token.Resolved, 0, len(defs))
	for _, d := range defs {
		v, err := d.ReplaceValue(ctx, lookup)
		if err != nil {
			p.log.warnf(ctx, "could not resolve %s: %v", d, err)
			continue
		}
		resolved = append(resolved, token.Resolved{Def: d, Value: v})
	}
	return token.Substitute(s, resolved, skip), nil
}

// AddToken registers a token created mid-run, keeping the length order.
func (p *TokenParserImpl) AddToken(d *token.Definition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, d)
	token.Sort(p.tokens)
}

// Rebase moves the parser and every token onto the web at webURL.
// Cached values are cleared so they are resolved again on next use.
func (p *TokenParserImpl) Rebase(ctx context.Context, webURL string) error {
	web, _, err := p.loadWebs(ctx, webURL)
	if err != nil {
		return err
	}
	ref := webRef(web)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.web = ref
	for _, d := range p.tokens {
		d.Rebind(ref)
	}
	return nil
}

// LeftOverTokens returns the bracket tokens still present in s.
func (p *TokenParserImpl) LeftOverTokens(s string) []string {
	return token.LeftOvers(s)
}

// Tokens returns a snapshot of the registered definitions.
func (p *TokenParserImpl) Tokens() []*token.Definition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*token.Definition, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// Web returns the web the parser is bound to.
func (p *TokenParserImpl) Web() token.WebRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.web
}

// siteLookup performs the remote token resolutions against the site.
type siteLookup struct {
	site secondary.SiteRepository
}

func (l siteLookup) SiteCollectionTermStoreID(ctx context.Context, web token.WebRef) (string, error) {
	store, err := l.site.GetDefaultSiteCollectionTermStore(ctx)
	if err != nil {
		return "", err
	}
	return store.ID, nil
}

func webRef(w *secondary.WebRecord) token.WebRef {
	return token.WebRef{ID: w.ID, ServerRelativeURL: w.ServerRelativeURL}
}

// relativeURL returns target relative to the web at base.
func relativeURL(base, target string) string {
	base = strings.TrimSuffix(base, "/")
	if strings.HasPrefix(strings.ToLower(target), strings.ToLower(base)+"/") {
		return target[len(base)+1:]
	}
	return strings.TrimPrefix(target, "/")
}

// Ensure TokenParserImpl implements the interface
var _ primary.TokenParser = (*TokenParserImpl)(nil)
var _ token.Lookup = siteLookup{}
