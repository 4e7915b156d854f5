package models

// ContentType is a declared content type.
// Optional booleans are nil when the template does not mention them.
type ContentType struct {
	ID                  string     `json:"ID,omitempty"`
	ParentID            string     `json:"ParentId,omitempty"`
	Name                string     `json:"Name"`
	Description         string     `json:"Description,omitempty"`
	Group               string     `json:"Group,omitempty"`
	Hidden              *bool      `json:"Hidden,omitempty"`
	Sealed              *bool      `json:"Sealed,omitempty"`
	ReadOnly            *bool      `json:"ReadOnly,omitempty"`
	Overwrite           bool       `json:"Overwrite,omitempty"`
	NewFormURL          string     `json:"NewFormUrl,omitempty"`
	EditFormURL         string     `json:"EditFormUrl,omitempty"`
	DisplayFormURL      string     `json:"DisplayFormUrl,omitempty"`
	DocumentTemplate    string     `json:"DocumentTemplate,omitempty"`
	DocumentSetTemplate string     `json:"DocumentSetTemplate,omitempty"`
	FieldRefs           []FieldRef `json:"FieldRefs,omitempty"`
}

// FieldRef references a site field from a content type.
type FieldRef struct {
	ID       string `json:"ID"`
	Name     string `json:"Name,omitempty"`
	Required bool   `json:"Required,omitempty"`
	Hidden   bool   `json:"Hidden,omitempty"`
}

// Bool returns a pointer to b, for declaring optional flags.
func Bool(b bool) *bool {
	return &b
}
