package field

import (
	"fmt"
	"strings"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/core/schema"
	"github.com/example/pnp/internal/models"
)

// LiveField is a site field as loaded for reconciliation.
type LiveField struct {
	ID           string
	InternalName string
	Title        string
	TypeAsString string
	DefaultValue string
	SchemaXML    string
}

// Action is the reconcile branch chosen for a declared field.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	}
	return "unknown"
}

// Decision is the branch for one declared field plus the live match, if any.
type Decision struct {
	Action Action
	Live   LiveField
}

// FindLive returns the live field with the given identifier. Fields whose
// identifier did not load never match.
func FindLive(id string, live []LiveField) (LiveField, bool) {
	for _, f := range live {
		if guid.Equal(f.ID, id) {
			return f, true
		}
	}
	return LiveField{}, false
}

// Decide picks create or update for a declared field identifier.
func Decide(id string, live []LiveField) Decision {
	if f, ok := FindLive(id, live); ok {
		return Decision{Action: ActionUpdate, Live: f}
	}
	return Decision{Action: ActionCreate}
}

// DeclaredSchema returns the field's raw schema, or one synthesized from its
// properties when none is declared. A raw schema goes through resolve whole;
// a synthesized one has each property value resolved before it is escaped.
func DeclaredSchema(f *models.Field, resolve schema.Resolver) (string, error) {
	if raw := f.SchemaXML(); raw != "" {
		if resolve == nil {
			return raw, nil
		}
		return resolve(raw)
	}
	return schema.Synthesize(f.Properties, resolve)
}

// DeclaredID returns the field identifier, taking it from the schema when the
// template only carries SchemaXml.
func DeclaredID(f *models.Field, schemaXML string) string {
	if id := f.ID(); id != "" {
		return id
	}
	el, err := schema.ParseField(schemaXML)
	if err != nil {
		return ""
	}
	id, _ := el.Attr("ID")
	return id
}

// PlanCreate returns the effect that adds a field from its schema.
func PlanCreate(schemaXML string) (effects.FieldEffect, error) {
	prepared, err := schema.PrepareForCreate(schemaXML)
	if err != nil {
		return effects.FieldEffect{}, fmt.Errorf("failed to prepare field schema: %w", err)
	}
	return effects.FieldEffect{Operation: effects.OpCreate, SchemaXML: prepared}, nil
}

// UpdatePlan is the outcome of planning an in-place field update.
type UpdatePlan struct {
	Effects []effects.Effect
	Skipped bool   // the update cannot be applied
	Reason  string // why nothing is committed
}

// Changed reports whether the plan mutates the site.
func (p UpdatePlan) Changed() bool {
	return len(p.Effects) > 0
}

// PlanUpdate merges the declared schema onto the live one.
func PlanUpdate(fieldID, liveXML, declaredXML string) (UpdatePlan, error) {
	if strings.EqualFold(liveXML, declaredXML) {
		return UpdatePlan{Reason: "schema unchanged"}, nil
	}

	res, err := schema.Merge(liveXML, declaredXML)
	if err != nil {
		return UpdatePlan{}, err
	}
	if res.TypeMismatch {
		guard := CanChangeSchema(fieldID, res.LiveType, res.DeclaredType)
		return UpdatePlan{Skipped: true, Reason: guard.Reason}, nil
	}
	if !res.Changed {
		return UpdatePlan{Reason: "schema unchanged"}, nil
	}

	return UpdatePlan{
		Effects: []effects.Effect{effects.FieldEffect{
			Operation: effects.OpUpdateSchema,
			FieldID:   fieldID,
			SchemaXML: res.XML(),
		}},
	}, nil
}

// PlanDefaultValue returns the effect that stores a validated taxonomy
// default, or NoEffect when the stored value is already canonical.
func PlanDefaultValue(fieldID, current, validated string) effects.Effect {
	if validated == "" || validated == current {
		return effects.NoEffect{}
	}
	return effects.FieldEffect{
		Operation:    effects.OpSetDefault,
		FieldID:      fieldID,
		DefaultValue: validated,
	}
}
