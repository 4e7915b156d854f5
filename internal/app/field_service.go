package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/field"
	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/core/token"
	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// HandlerSiteFields is the template section reconciled by FieldServiceImpl.
const HandlerSiteFields = models.SectionSiteFields

// FieldServiceImpl implements the FieldProvisioner interface.
type FieldServiceImpl struct {
	site     secondary.SiteRepository
	executor *BatchExecutor
	log      scopedLogger
}

// NewFieldService creates a new FieldService with injected dependencies.
func NewFieldService(site secondary.SiteRepository, executor *BatchExecutor, log secondary.LogWriter) *FieldServiceImpl {
	return &FieldServiceImpl{
		site:     site,
		executor: executor,
		log:      newScopedLogger(log, HandlerSiteFields),
	}
}

// ProvisionObjects reconciles each declared field against the site catalog
// of the root web, whichever web the parser is bound to. Content types live
// on the root web and can only link fields defined there. A failing field is
// logged and reported, and the remaining fields are still processed.
func (s *FieldServiceImpl) ProvisionObjects(ctx context.Context, fields []*models.Field, parser primary.TokenParser) (*primary.ProvisionResult, error) {
	result := &primary.ProvisionResult{Handler: HandlerSiteFields}

	root, err := s.site.GetRootWeb(ctx)
	if err != nil {
		s.log.errorf(ctx, "failed to load root web: %v", err)
		return result, fmt.Errorf("failed to load root web: %w", err)
	}
	web := webRef(root)

	records, err := s.site.ListFields(ctx, web.ID)
	if err != nil {
		s.log.errorf(ctx, "failed to load site fields: %v", err)
		return result, fmt.Errorf("failed to load site fields: %w", err)
	}
	live := make([]field.LiveField, 0, len(records))
	for _, r := range records {
		live = append(live, toLiveField(r))
	}

	var errs []error
	for _, f := range fields {
		outcome, created, err := s.provisionField(ctx, web, f, live, parser, result)
		if err != nil {
			s.log.errorf(ctx, "field %s: %v", f.Name(), err)
			errs = append(errs, fmt.Errorf("field %s: %w", f.Name(), err))
			outcome.Status = primary.StatusFailed
			outcome.Reason = err.Error()
		}
		if created != nil {
			live = append(live, *created)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, errors.Join(errs...)
}

func (s *FieldServiceImpl) provisionField(ctx context.Context, web token.WebRef, f *models.Field, live []field.LiveField, parser primary.TokenParser, result *primary.ProvisionResult) (primary.ObjectOutcome, *field.LiveField, error) {
	outcome := primary.ObjectOutcome{Name: f.Name()}

	declared, err := field.DeclaredSchema(f, func(v string) (string, error) {
		return parser.ParseString(ctx, v)
	})
	if err != nil {
		return outcome, nil, fmt.Errorf("failed to parse tokens: %w", err)
	}
	id := field.DeclaredID(f, declared)
	outcome.ID = id

	decision := field.Decide(id, live)
	switch decision.Action {
	case field.ActionCreate:
		rec, err := s.createField(ctx, web, declared, parser, result)
		if err != nil {
			return outcome, nil, err
		}
		outcome.ID = rec.ID
		outcome.Status = primary.StatusCreated
		created := toLiveField(rec)
		return outcome, &created, nil

	default:
		status, reason, err := s.updateField(ctx, web, decision.Live, declared, result)
		outcome.Status, outcome.Reason = status, reason
		return outcome, nil, err
	}
}

func (s *FieldServiceImpl) createField(ctx context.Context, web token.WebRef, declared string, parser primary.TokenParser, result *primary.ProvisionResult) (*secondary.FieldRecord, error) {
	eff, err := field.PlanCreate(declared)
	if err != nil {
		return nil, err
	}
	res, _, err := s.executor.Execute(ctx, web.ID, []effects.Effect{eff})
	if err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}
	result.Commits++

	created, ok := res.First(secondary.CreatedField)
	if !ok {
		return nil, fmt.Errorf("site did not report the created field")
	}
	rec, err := s.site.GetField(ctx, web.ID, created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created field: %w", err)
	}
	parser.AddToken(token.NewFieldTitle(web, rec.InternalName, rec.Title))
	s.log.infof(ctx, "created field %s (%s)", rec.InternalName, rec.ID)

	if field.NeedsTaxonomyValidation(rec.TypeAsString, rec.DefaultValue) {
		if err := s.validateTaxonomyDefault(ctx, web.ID, rec, result); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (s *FieldServiceImpl) updateField(ctx context.Context, web token.WebRef, live field.LiveField, declared string, result *primary.ProvisionResult) (status, reason string, err error) {
	current, err := s.site.GetField(ctx, web.ID, live.ID)
	if err != nil {
		return primary.StatusFailed, "", fmt.Errorf("failed to load field schema: %w", err)
	}

	plan, err := field.PlanUpdate(current.ID, current.SchemaXML, declared)
	if err != nil {
		return primary.StatusFailed, "", err
	}
	if plan.Skipped {
		s.log.warnf(ctx, "%s", plan.Reason)
		return primary.StatusSkipped, plan.Reason, nil
	}
	if !plan.Changed() {
		return primary.StatusUnchanged, "", nil
	}

	if _, _, err := s.executor.Execute(ctx, web.ID, plan.Effects); err != nil {
		return primary.StatusFailed, "", fmt.Errorf("failed to update field: %w", err)
	}
	result.Commits++
	s.log.infof(ctx, "updated field %s (%s)", current.InternalName, current.ID)

	updated, err := s.site.GetField(ctx, web.ID, current.ID)
	if err != nil {
		return primary.StatusUpdated, "", fmt.Errorf("failed to reload field: %w", err)
	}
	if field.NeedsTaxonomyValidation(updated.TypeAsString, updated.DefaultValue) {
		if err := s.validateTaxonomyDefault(ctx, web.ID, updated, result); err != nil {
			return primary.StatusUpdated, "", err
		}
	}
	return primary.StatusUpdated, "", nil
}

func toLiveField(r *secondary.FieldRecord) field.LiveField {
	return field.LiveField{
		ID:           guid.Normalize(r.ID),
		InternalName: r.InternalName,
		Title:        r.Title,
		TypeAsString: r.TypeAsString,
		DefaultValue: r.DefaultValue,
		SchemaXML:    r.SchemaXML,
	}
}

// Ensure FieldServiceImpl implements the interface
var _ primary.FieldProvisioner = (*FieldServiceImpl)(nil)
