package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/ctxutil"
	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// ProvisioningServiceImpl implements the ProvisioningService interface.
// It runs the handler families of a template in document order against one
// shared token parser.
type ProvisioningServiceImpl struct {
	templates    secondary.TemplateSource
	site         secondary.SiteRepository
	fields       primary.FieldProvisioner
	contentTypes primary.ContentTypeProvisioner
	logWriter    secondary.LogWriter
	log          scopedLogger
	verbose      bool
}

// NewProvisioningService creates a new ProvisioningService with injected dependencies.
func NewProvisioningService(
	templates secondary.TemplateSource,
	site secondary.SiteRepository,
	fields primary.FieldProvisioner,
	contentTypes primary.ContentTypeProvisioner,
	logWriter secondary.LogWriter,
	verbose bool,
) *ProvisioningServiceImpl {
	return &ProvisioningServiceImpl{
		templates:    templates,
		site:         site,
		fields:       fields,
		contentTypes: contentTypes,
		logWriter:    logWriter,
		log:          newScopedLogger(logWriter, "Provisioning"),
		verbose:      verbose,
	}
}

// Apply reconciles the target web against a template.
//
// A failed parser initialization aborts the run before any handler executes.
// A handler that reports errors stops the run after it; changes committed so
// far stay in place.
func (s *ProvisioningServiceImpl) Apply(ctx context.Context, req primary.ApplyRequest) (*primary.ApplyResult, error) {
	runID := guid.New()
	ctx = ctxutil.WithRunID(ctx, runID)
	result := &primary.ApplyResult{RunID: runID, WebURL: req.WebURL}

	tpl, err := s.templates.Load(ctx, req.TemplatePath)
	if err != nil {
		s.log.errorf(ctx, "failed to load template %s: %v", req.TemplatePath, err)
		return result, fmt.Errorf("failed to load template: %w", err)
	}
	s.log.infof(ctx, "applying %s to %s", req.TemplatePath, displayWeb(req.WebURL))

	parser := NewTokenParser(s.site, s.logWriter)
	if err := parser.Init(ctx, req.WebURL, tpl); err != nil {
		s.log.errorf(ctx, "token parser initialization failed: %v", err)
		return result, fmt.Errorf("failed to initialize token parser: %w", err)
	}
	result.WebURL = parser.Web().ServerRelativeURL

	for _, section := range tpl.Sections {
		res, known, err := s.runHandler(ctx, section, tpl, parser)
		if !known {
			result.Ignored = append(result.Ignored, section)
			if s.verbose {
				s.log.infof(ctx, "ignoring template section %s", section)
			}
			continue
		}
		if res != nil {
			result.Handlers = append(result.Handlers, res)
		}
		if err != nil {
			s.log.errorf(ctx, "handler %s failed, stopping run: %v", section, err)
			return result, fmt.Errorf("handler %s failed: %w", section, err)
		}
	}

	s.log.infof(ctx, "run finished with %d commits", result.Commits())
	return result, nil
}

func (s *ProvisioningServiceImpl) runHandler(ctx context.Context, section string, tpl *models.Template, parser primary.TokenParser) (*primary.ProvisionResult, bool, error) {
	switch {
	case strings.EqualFold(section, models.SectionParameters):
		return nil, true, nil
	case strings.EqualFold(section, models.SectionSiteFields):
		res, err := s.fields.ProvisionObjects(ctx, tpl.SiteFields, parser)
		return res, true, err
	case strings.EqualFold(section, models.SectionContentTypes):
		res, err := s.contentTypes.ProvisionObjects(ctx, tpl.ContentTypes, parser)
		return res, true, err
	}
	return nil, false, nil
}

// Validate checks a template without touching the site.
func (s *ProvisioningServiceImpl) Validate(ctx context.Context, templatePath string) error {
	if err := s.templates.Validate(ctx, templatePath); err != nil {
		return fmt.Errorf("template %s is invalid: %w", templatePath, err)
	}
	if _, err := s.templates.Load(ctx, templatePath); err != nil {
		return fmt.Errorf("template %s is invalid: %w", templatePath, err)
	}
	return nil
}

func displayWeb(url string) string {
	if url == "" {
		return "the root web"
	}
	return url
}

// Ensure ProvisioningServiceImpl implements the interface
var _ primary.ProvisioningService = (*ProvisioningServiceImpl)(nil)
