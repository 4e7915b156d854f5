package app

import (
	"context"
	"fmt"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/field"
	"github.com/example/pnp/internal/core/taxonomy"
	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/ports/secondary"
)

// validateTaxonomyDefault re-validates a taxonomy field's default value so its
// wssIds are valid on this site, and stores the canonical form when it
// differs. A default that does not parse is left alone.
func (s *FieldServiceImpl) validateTaxonomyDefault(ctx context.Context, webID string, rec *secondary.FieldRecord, result *primary.ProvisionResult) error {
	values, ok := taxonomy.Parse(rec.DefaultValue, taxonomy.IsMulti(rec.TypeAsString))
	if !ok {
		s.log.warnf(ctx, "field %s has an unparseable taxonomy default %q", rec.InternalName, rec.DefaultValue)
		return nil
	}

	validated, err := s.site.ValidateTaxonomyValue(ctx, webID, rec.ID, values)
	if err != nil {
		return fmt.Errorf("failed to validate taxonomy default: %w", err)
	}

	eff := field.PlanDefaultValue(rec.ID, rec.DefaultValue, validated)
	if _, committed, err := s.executor.Execute(ctx, webID, []effects.Effect{eff}); err != nil {
		return fmt.Errorf("failed to store taxonomy default: %w", err)
	} else if committed {
		result.Commits++
		s.log.infof(ctx, "revalidated taxonomy default of %s to %q", rec.InternalName, validated)
	}
	return nil
}
