// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"

	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/secondary"
)

//go:embed template.schema.json
var templateSchemaJSON []byte

const templateSchemaURL = "schema://template.json"

// TemplateLoader implements secondary.TemplateSource for template files on
// disk. Files may contain comments and trailing commas.
type TemplateLoader struct {
	schema *jsonschema.Schema
}

// NewTemplateLoader compiles the embedded template schema.
func NewTemplateLoader() (*TemplateLoader, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(templateSchemaURL, bytes.NewReader(templateSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add template schema: %w", err)
	}
	schema, err := compiler.Compile(templateSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile template schema: %w", err)
	}
	return &TemplateLoader{schema: schema}, nil
}

// Load reads, validates and parses the template at path.
func (l *TemplateLoader) Load(ctx context.Context, path string) (*models.Template, error) {
	data, err := l.read(path)
	if err != nil {
		return nil, err
	}
	if err := l.check(path, data); err != nil {
		return nil, err
	}

	tpl, err := models.ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tpl, nil
}

// Validate checks the template at path against the template schema.
func (l *TemplateLoader) Validate(ctx context.Context, path string) error {
	data, err := l.read(path)
	if err != nil {
		return err
	}
	return l.check(path, data)
}

// read returns the file contents as standard JSON.
func (l *TemplateLoader) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// Strip comments and trailing commas before parsing as standard JSON.
	return jsonc.ToJSON(data), nil
}

func (l *TemplateLoader) check(path string, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := l.schema.Validate(doc); err != nil {
		return fmt.Errorf("template %s does not match the template schema: %w", path, err)
	}
	return nil
}

// Ensure TemplateLoader implements the interface
var _ secondary.TemplateSource = (*TemplateLoader)(nil)
