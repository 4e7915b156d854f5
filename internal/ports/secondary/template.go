package secondary

import (
	"context"

	"github.com/example/pnp/internal/models"
)

// TemplateSource defines the secondary port for loading provisioning templates.
type TemplateSource interface {
	// Load reads, validates and parses the template at path.
	Load(ctx context.Context, path string) (*models.Template, error)

	// Validate checks the template at path against the template schema
	// without parsing it into a model.
	Validate(ctx context.Context, path string) error
}
