// Package models holds the template-side records a provisioning template
// declares. These are plain data; nothing here talks to a site.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Section names of the handler families the engine understands.
const (
	SectionParameters   = "Parameters"
	SectionSiteFields   = "SiteFields"
	SectionContentTypes = "ContentTypes"
)

// Template is a parsed provisioning template.
type Template struct {
	Parameters   []Parameter
	SiteFields   []*Field
	ContentTypes []*ContentType

	// Sections lists the top-level keys in document order. Handler families
	// run in this order.
	Sections []string

	// Raw keeps every top-level section, including ones no handler claims.
	Raw map[string]json.RawMessage
}

// Parameter is a flat name/value pair declared by the template.
type Parameter struct {
	Key   string
	Value string
}

// UnmarshalJSON accepts parameter values of any scalar JSON type.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key   string          `json:"Key"`
		Value json.RawMessage `json:"Value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Key = raw.Key
	p.Value = scalarString(raw.Value)
	return nil
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ParseTemplate decodes a JSON template, keeping the order of its sections.
func ParseTemplate(data []byte) (*Template, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("template must be a JSON object")
	}

	tpl := &Template{Raw: make(map[string]json.RawMessage)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read template section: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to read section %s: %w", key, err)
		}
		if _, seen := tpl.Raw[key]; !seen {
			tpl.Sections = append(tpl.Sections, key)
		}
		tpl.Raw[key] = raw
	}

	if raw, ok := tpl.section(SectionParameters); ok {
		if err := json.Unmarshal(raw, &tpl.Parameters); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", SectionParameters, err)
		}
	}
	if raw, ok := tpl.section(SectionSiteFields); ok {
		if err := json.Unmarshal(raw, &tpl.SiteFields); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", SectionSiteFields, err)
		}
	}
	if raw, ok := tpl.section(SectionContentTypes); ok {
		if err := json.Unmarshal(raw, &tpl.ContentTypes); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", SectionContentTypes, err)
		}
	}
	return tpl, nil
}

// section returns the first section whose key matches name case-insensitively.
func (t *Template) section(name string) (json.RawMessage, bool) {
	for _, key := range t.Sections {
		if strings.EqualFold(key, name) {
			return t.Raw[key], true
		}
	}
	return nil, false
}

// HasSection reports whether the template declares the named section.
func (t *Template) HasSection(name string) bool {
	for _, s := range t.Sections {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
