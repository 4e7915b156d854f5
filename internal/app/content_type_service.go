package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/pnp/internal/core/contenttype"
	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/token"
	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// HandlerContentTypes is the template section reconciled by ContentTypeServiceImpl.
const HandlerContentTypes = models.SectionContentTypes

// ContentTypeServiceImpl implements the ContentTypeProvisioner interface.
// Content types are always provisioned on the root web.
type ContentTypeServiceImpl struct {
	site     secondary.SiteRepository
	executor *BatchExecutor
	log      scopedLogger
}

// NewContentTypeService creates a new ContentTypeService with injected dependencies.
func NewContentTypeService(site secondary.SiteRepository, executor *BatchExecutor, log secondary.LogWriter) *ContentTypeServiceImpl {
	return &ContentTypeServiceImpl{
		site:     site,
		executor: executor,
		log:      newScopedLogger(log, HandlerContentTypes),
	}
}

// ctCatalog is the live state a content type run works against.
type ctCatalog struct {
	rootID string
	root   token.WebRef
	live   []*contenttype.LiveContentType
	fields []contenttype.SiteField
}

// ProvisionObjects reconciles each declared content type. A failing content
// type is logged and reported, and the remaining ones are still processed.
func (s *ContentTypeServiceImpl) ProvisionObjects(ctx context.Context, contentTypes []*models.ContentType, parser primary.TokenParser) (*primary.ProvisionResult, error) {
	result := &primary.ProvisionResult{Handler: HandlerContentTypes}

	cat, err := s.loadCatalog(ctx)
	if err != nil {
		s.log.errorf(ctx, "%v", err)
		return result, err
	}

	var errs []error
	for _, declared := range contentTypes {
		outcome, err := s.provisionContentType(ctx, cat, declared, parser, result)
		if err != nil {
			s.log.errorf(ctx, "content type %s: %v", declared.Name, err)
			errs = append(errs, fmt.Errorf("content type %s: %w", declared.Name, err))
			outcome.Status = primary.StatusFailed
			outcome.Reason = err.Error()
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, errors.Join(errs...)
}

func (s *ContentTypeServiceImpl) loadCatalog(ctx context.Context) (*ctCatalog, error) {
	root, err := s.site.GetRootWeb(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load root web: %w", err)
	}
	records, err := s.site.ListContentTypes(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load content types: %w", err)
	}
	fields, err := s.site.ListFields(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load site fields: %w", err)
	}

	cat := &ctCatalog{rootID: root.ID, root: webRef(root)}
	for _, r := range records {
		cat.live = append(cat.live, toLiveContentType(r))
	}
	for _, f := range fields {
		cat.fields = append(cat.fields, contenttype.SiteField{ID: f.ID, InternalName: f.InternalName})
	}
	return cat, nil
}

func (s *ContentTypeServiceImpl) provisionContentType(ctx context.Context, cat *ctCatalog, declared *models.ContentType, parser primary.TokenParser, result *primary.ProvisionResult) (primary.ObjectOutcome, error) {
	outcome := primary.ObjectOutcome{Name: declared.Name}

	ct, err := resolveContentType(ctx, parser, declared)
	if err != nil {
		return outcome, err
	}
	outcome.Name = ct.Name

	decision := contenttype.Decide(ct, cat.live)
	switch decision.Action {
	case contenttype.ActionRecreate:
		if _, _, err := s.executor.Execute(ctx, cat.rootID, []effects.Effect{contenttype.DeleteEffect(decision.Live)}); err != nil {
			return outcome, fmt.Errorf("failed to delete content type: %w", err)
		}
		result.Commits++
		cat.remove(decision.Live)
		s.log.infof(ctx, "deleted content type %s (%s) for recreation", decision.Live.Name, decision.Live.ID)

		id, err := s.createContentType(ctx, cat, ct, parser, result)
		outcome.ID, outcome.Status = id, primary.StatusRecreated
		return outcome, err

	case contenttype.ActionCreate:
		id, err := s.createContentType(ctx, cat, ct, parser, result)
		outcome.ID, outcome.Status = id, primary.StatusCreated
		return outcome, err

	default:
		outcome.ID = decision.Live.ID
		changed, err := s.updateContentType(ctx, cat, ct, decision.Live, result)
		outcome.Status = primary.StatusUnchanged
		if changed {
			outcome.Status = primary.StatusUpdated
		}
		return outcome, err
	}
}

func (s *ContentTypeServiceImpl) createContentType(ctx context.Context, cat *ctCatalog, ct *models.ContentType, parser primary.TokenParser, result *primary.ProvisionResult) (string, error) {
	res, _, err := s.executor.Execute(ctx, cat.rootID, []effects.Effect{contenttype.CreateEffect(ct)})
	if err != nil {
		return "", fmt.Errorf("failed to create content type: %w", err)
	}
	result.Commits++

	id, ok := res.CreatedID(secondary.CreatedContentType, ct.Name)
	if !ok {
		return "", fmt.Errorf("site did not report the created content type")
	}
	parser.AddToken(token.NewContentTypeID(cat.root, ct.Name, id))
	s.log.infof(ctx, "created content type %s (%s)", ct.Name, id)

	rec, err := s.site.GetContentType(ctx, cat.rootID, id)
	if err != nil {
		return id, fmt.Errorf("failed to load created content type: %w", err)
	}
	live := toLiveContentType(rec)
	cat.live = append(cat.live, live)

	if _, err := s.applyFieldLinks(ctx, cat, ct, live, result); err != nil {
		return id, err
	}
	return id, nil
}

func (s *ContentTypeServiceImpl) updateContentType(ctx context.Context, cat *ctCatalog, ct *models.ContentType, live *contenttype.LiveContentType, result *primary.ProvisionResult) (bool, error) {
	changes := contenttype.DiffProperties(ct, live)
	_, committed, err := s.executor.Execute(ctx, cat.rootID, []effects.Effect{contenttype.UpdateEffect(live, changes)})
	if err != nil {
		return false, fmt.Errorf("failed to update content type: %w", err)
	}
	if committed {
		result.Commits++
		s.log.infof(ctx, "updated %d properties of content type %s", len(changes), live.Name)
	}

	linked, err := s.applyFieldLinks(ctx, cat, ct, live, result)
	return committed || linked, err
}

func (s *ContentTypeServiceImpl) applyFieldLinks(ctx context.Context, cat *ctCatalog, ct *models.ContentType, live *contenttype.LiveContentType, result *primary.ProvisionResult) (bool, error) {
	plan := contenttype.PlanFieldLinks(live.ID, ct.FieldRefs, live.FieldLinks, cat.fields)
	for _, id := range plan.Missing {
		s.log.warnf(ctx, "content type %s references unknown field %s", ct.Name, id)
	}
	if !plan.Changed() {
		return false, nil
	}

	if _, _, err := s.executor.Execute(ctx, cat.rootID, plan.Effects); err != nil {
		return false, fmt.Errorf("failed to update field links: %w", err)
	}
	result.Commits++
	s.log.infof(ctx, "content type %s: %d links added, %d updated", ct.Name, len(plan.Added), len(plan.Updated))

	if rec, err := s.site.GetContentType(ctx, cat.rootID, live.ID); err == nil {
		*live = *toLiveContentType(rec)
	}
	return true, nil
}

func (c *ctCatalog) remove(ct *contenttype.LiveContentType) {
	kept := c.live[:0]
	for _, l := range c.live {
		if l != ct {
			kept = append(kept, l)
		}
	}
	c.live = kept
}

// resolveContentType returns a copy of declared with tokens substituted in
// every text attribute.
func resolveContentType(ctx context.Context, parser primary.TokenParser, declared *models.ContentType) (*models.ContentType, error) {
	ct := *declared
	var err error
	parse := func(s *string) {
		if err != nil {
			return
		}
		*s, err = parser.ParseString(ctx, *s)
	}

	parse(&ct.ID)
	parse(&ct.ParentID)
	parse(&ct.Name)
	parse(&ct.Description)
	parse(&ct.Group)
	parse(&ct.NewFormURL)
	parse(&ct.EditFormURL)
	parse(&ct.DisplayFormURL)
	parse(&ct.DocumentTemplate)
	parse(&ct.DocumentSetTemplate)

	ct.FieldRefs = make([]models.FieldRef, len(declared.FieldRefs))
	for i, ref := range declared.FieldRefs {
		parse(&ref.ID)
		parse(&ref.Name)
		ct.FieldRefs[i] = ref
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse tokens: %w", err)
	}
	return &ct, nil
}

func toLiveContentType(r *secondary.ContentTypeRecord) *contenttype.LiveContentType {
	ct := &contenttype.LiveContentType{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Group:            r.Group,
		Hidden:           r.Hidden,
		Sealed:           r.Sealed,
		ReadOnly:         r.ReadOnly,
		DocumentTemplate: r.DocumentTemplate,
		NewFormURL:       r.NewFormURL,
		EditFormURL:      r.EditFormURL,
		DisplayFormURL:   r.DisplayFormURL,
	}
	for _, l := range r.FieldLinks {
		ct.FieldLinks = append(ct.FieldLinks, contenttype.LiveLink{
			FieldID:  l.FieldID,
			Name:     l.Name,
			Required: l.Required,
			Hidden:   l.Hidden,
		})
	}
	return ct
}

// Ensure ContentTypeServiceImpl implements the interface
var _ primary.ContentTypeProvisioner = (*ContentTypeServiceImpl)(nil)
