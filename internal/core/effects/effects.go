// Package effects describes site mutations as data.
// Planners in core return effects; the shell hands a slice of them to the site
// as one batch, and one batch is one commit.
package effects

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// Operations shared by the catalog effects.
const (
	OpCreate       = "create"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpUpdateSchema = "update_schema"
	OpSetDefault   = "set_default"
	OpAdd          = "add"
	OpReorder      = "reorder"
)

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// FieldEffect mutates the site field catalog.
type FieldEffect struct {
	Operation    string // create, update_schema, set_default
	FieldID      string // target field; empty on create
	SchemaXML    string // create, update_schema
	DefaultValue string // set_default
}

func (e FieldEffect) EffectType() string { return "field" }

// PropertyChange sets one scalar property of a content type.
type PropertyChange struct {
	Property string
	Value    string
}

// Content type properties a PropertyChange may name.
const (
	PropName             = "Name"
	PropDescription      = "Description"
	PropGroup            = "Group"
	PropHidden           = "Hidden"
	PropSealed           = "Sealed"
	PropReadOnly         = "ReadOnly"
	PropNewFormURL       = "NewFormUrl"
	PropEditFormURL      = "EditFormUrl"
	PropDisplayFormURL   = "DisplayFormUrl"
	PropDocumentTemplate = "DocumentTemplate"
)

// ContentTypeEffect mutates the content type catalog.
type ContentTypeEffect struct {
	Operation     string // create, update, delete
	ContentTypeID string // update, delete; optional requested id on create
	Name          string
	Description   string
	Group         string
	ParentID      string
	Changes       []PropertyChange
}

func (e ContentTypeEffect) EffectType() string { return "content_type" }

// FieldLinkEffect mutates the field links of one content type.
type FieldLinkEffect struct {
	Operation     string // add, update, reorder
	ContentTypeID string
	FieldID       string   // add, update
	Required      bool     // add, update
	Hidden        bool     // add, update
	Order         []string // reorder: internal names, first to last
}

func (e FieldLinkEffect) EffectType() string { return "field_link" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }

// Flatten expands composites and drops NoEffect and LogEffect, leaving only
// the mutations a site must apply.
func Flatten(list ...Effect) []Effect {
	var out []Effect
	for _, e := range list {
		switch typed := e.(type) {
		case nil, NoEffect, LogEffect:
		case CompositeEffect:
			out = append(out, Flatten(typed.Effects...)...)
		default:
			out = append(out, e)
		}
	}
	return out
}

// Logs collects the LogEffects in list, including nested ones.
func Logs(list ...Effect) []LogEffect {
	var out []LogEffect
	for _, e := range list {
		switch typed := e.(type) {
		case LogEffect:
			out = append(out, typed)
		case CompositeEffect:
			out = append(out, Logs(typed.Effects...)...)
		}
	}
	return out
}
