// Package contenttype contains the pure reconcile logic for content types.
// This is part of the Functional Core - no I/O, only pure functions.
package contenttype

import (
	"strconv"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/models"
)

// LiveLink is a field link of a live content type.
type LiveLink struct {
	FieldID  string
	Name     string
	Required bool
	Hidden   bool
}

// LiveContentType is a content type as loaded for reconciliation.
type LiveContentType struct {
	ID               string
	Name             string
	Description      string
	Group            string
	Hidden           bool
	Sealed           bool
	ReadOnly         bool
	DocumentTemplate string
	NewFormURL       string
	EditFormURL      string
	DisplayFormURL   string
	FieldLinks       []LiveLink
}

// SiteField is an entry of the site field catalog.
type SiteField struct {
	ID           string
	InternalName string
}

// Action is the reconcile branch chosen for a declared content type.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
	ActionRecreate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionRecreate:
		return "recreate"
	}
	return "unknown"
}

// Decision is the branch for one declared content type plus its live match.
type Decision struct {
	Action Action
	Live   *LiveContentType
}

// FindLive returns the live content type with exactly the given name.
func FindLive(name string, live []*LiveContentType) *LiveContentType {
	for _, ct := range live {
		if ct.Name == name {
			return ct
		}
	}
	return nil
}

// Decide picks create, update or recreate for a declared content type.
func Decide(declared *models.ContentType, live []*LiveContentType) Decision {
	existing := FindLive(declared.Name, live)
	switch {
	case existing == nil:
		return Decision{Action: ActionCreate}
	case declared.Overwrite:
		return Decision{Action: ActionRecreate, Live: existing}
	default:
		return Decision{Action: ActionUpdate, Live: existing}
	}
}

// CreateEffect returns the effect that adds a declared content type together
// with its initial properties.
func CreateEffect(declared *models.ContentType) effects.ContentTypeEffect {
	return effects.ContentTypeEffect{
		Operation:     effects.OpCreate,
		ContentTypeID: declared.ID,
		Name:          declared.Name,
		Description:   declared.Description,
		Group:         declared.Group,
		ParentID:      declared.ParentID,
		Changes:       InitialPropertyChanges(declared),
	}
}

// DeleteEffect returns the effect that removes a live content type.
func DeleteEffect(live *LiveContentType) effects.ContentTypeEffect {
	return effects.ContentTypeEffect{
		Operation:     effects.OpDelete,
		ContentTypeID: live.ID,
		Name:          live.Name,
	}
}

// InitialPropertyChanges lists the properties set right after creation.
// A document template is only applied when the type is not a document set.
func InitialPropertyChanges(declared *models.ContentType) []effects.PropertyChange {
	var changes []effects.PropertyChange
	addBool := func(prop string, v *bool) {
		if v != nil {
			changes = append(changes, effects.PropertyChange{Property: prop, Value: strconv.FormatBool(*v)})
		}
	}
	addText := func(prop, v string) {
		if v != "" {
			changes = append(changes, effects.PropertyChange{Property: prop, Value: v})
		}
	}

	addBool(effects.PropReadOnly, declared.ReadOnly)
	addBool(effects.PropHidden, declared.Hidden)
	addBool(effects.PropSealed, declared.Sealed)
	if declared.DocumentSetTemplate == "" {
		addText(effects.PropDocumentTemplate, declared.DocumentTemplate)
	}
	addText(effects.PropNewFormURL, declared.NewFormURL)
	addText(effects.PropEditFormURL, declared.EditFormURL)
	addText(effects.PropDisplayFormURL, declared.DisplayFormURL)
	return changes
}

// DiffProperties lists the declared scalar properties that differ from the
// live content type. Properties the template leaves out are never written.
func DiffProperties(declared *models.ContentType, live *LiveContentType) []effects.PropertyChange {
	var changes []effects.PropertyChange
	diffBool := func(prop string, want *bool, have bool) {
		if want != nil && *want != have {
			changes = append(changes, effects.PropertyChange{Property: prop, Value: strconv.FormatBool(*want)})
		}
	}
	diffText := func(prop, want, have string) {
		if want != "" && want != have {
			changes = append(changes, effects.PropertyChange{Property: prop, Value: want})
		}
	}

	diffBool(effects.PropHidden, declared.Hidden, live.Hidden)
	diffBool(effects.PropReadOnly, declared.ReadOnly, live.ReadOnly)
	diffBool(effects.PropSealed, declared.Sealed, live.Sealed)
	diffText(effects.PropDescription, declared.Description, live.Description)
	diffText(effects.PropDocumentTemplate, declared.DocumentTemplate, live.DocumentTemplate)
	diffText(effects.PropName, declared.Name, live.Name)
	diffText(effects.PropGroup, declared.Group, live.Group)
	diffText(effects.PropDisplayFormURL, declared.DisplayFormURL, live.DisplayFormURL)
	diffText(effects.PropEditFormURL, declared.EditFormURL, live.EditFormURL)
	diffText(effects.PropNewFormURL, declared.NewFormURL, live.NewFormURL)
	return changes
}

// UpdateEffect wraps property changes for a live content type. It returns
// NoEffect when there is nothing to change.
func UpdateEffect(live *LiveContentType, changes []effects.PropertyChange) effects.Effect {
	if len(changes) == 0 {
		return effects.NoEffect{}
	}
	return effects.ContentTypeEffect{
		Operation:     effects.OpUpdate,
		ContentTypeID: live.ID,
		Name:          live.Name,
		Changes:       changes,
	}
}
