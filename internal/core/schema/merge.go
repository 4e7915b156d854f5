package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/example/pnp/internal/models"
)

// MergeResult is the outcome of merging a declared field schema onto a live one.
type MergeResult struct {
	Element      *Element
	Changed      bool
	TypeMismatch bool
	LiveType     string
	DeclaredType string
}

// XML returns the merged schema, or "" when nothing was merged.
func (r MergeResult) XML() string {
	if r.Element == nil {
		return ""
	}
	return r.Element.String()
}

// Merge transplants the declared schema onto the live one.
//
// Declared attributes overwrite or extend the live ones. Each child tag the
// declared schema carries replaces every live child with that tag. The live
// Version attribute and the declared List attribute are dropped. Changed is
// false when the merged schema matches the live one apart from Version.
func Merge(liveXML, declaredXML string) (MergeResult, error) {
	live, err := ParseField(liveXML)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to parse live schema: %w", err)
	}
	declared, err := ParseField(declaredXML)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to parse declared schema: %w", err)
	}

	liveType, _ := live.Attr("Type")
	declaredType, _ := declared.Attr("Type")
	if liveType != declaredType {
		return MergeResult{TypeMismatch: true, LiveType: liveType, DeclaredType: declaredType}, nil
	}

	decl := declared.Clone()
	decl.RemoveAttr("List")
	NormalizeBooleans(decl)

	merged := live.Clone()
	for _, a := range decl.Attrs {
		merged.SetAttr(a.Name, a.Value)
	}

	replaced := make(map[string]bool)
	for _, c := range decl.Children {
		replaced[c.Name] = true
	}
	kept := merged.Children[:0]
	for _, c := range merged.Children {
		if !replaced[c.Name] {
			kept = append(kept, c)
		}
	}
	merged.Children = append(kept, decl.Children...)
	if decl.Text != "" {
		merged.Text = decl.Text
	}
	merged.RemoveAttr("Version")

	return MergeResult{
		Element:      merged,
		Changed:      !Equal(merged, live, "Version"),
		LiveType:     liveType,
		DeclaredType: declaredType,
	}, nil
}

// PrepareForCreate returns the declared schema ready to submit as a new field.
func PrepareForCreate(declaredXML string) (string, error) {
	f, err := ParseField(declaredXML)
	if err != nil {
		return "", err
	}
	f.RemoveAttr("List")
	NormalizeBooleans(f)
	return f.String(), nil
}

// Resolver rewrites a declared text value before it is placed in the tree.
type Resolver func(string) (string, error)

// Synthesize builds a Field schema from declared properties. Each text value
// goes through resolve before escaping; a nil resolve keeps values as written.
func Synthesize(props []models.Property, resolve Resolver) (string, error) {
	if resolve == nil {
		resolve = func(s string) (string, error) { return s, nil }
	}
	el := &Element{Name: "Field"}
	var fieldType, formula string
	for _, p := range props {
		switch {
		case strings.EqualFold(p.Key, "SchemaXml"):
			continue
		case strings.EqualFold(p.Key, "Formula"):
			formula, _ = scalar(p.Value)
			continue
		case strings.EqualFold(p.Key, "Type"):
			fieldType, _ = scalar(p.Value)
		}
		if err := apply(el, p.Key, p.Value, resolve); err != nil {
			return "", fmt.Errorf("property %s: %w", p.Key, err)
		}
	}
	if fieldType == "Calculated" && formula != "" {
		text, err := resolve(formula)
		if err != nil {
			return "", fmt.Errorf("property Formula: %w", err)
		}
		el.Children = append(el.Children, &Element{Name: "Formula", Text: text})
	}
	return el.String(), nil
}

func apply(el *Element, key string, value any, resolve Resolver) error {
	if value == nil {
		return nil
	}
	if raw, ok := scalar(value); ok {
		text, err := resolve(raw)
		if err != nil {
			return err
		}
		switch {
		case strings.EqualFold(key, "content"):
			el.Text = text
		case isIndex(key):
			el.Children = append(el.Children, &Element{Name: "Property", Text: text})
		default:
			el.SetAttr(key, text)
		}
		return nil
	}

	child := &Element{Name: key}
	if isIndex(key) {
		child.Name = "Property"
	}
	switch typed := value.(type) {
	case []models.Property:
		for _, p := range typed {
			if err := apply(child, p.Key, p.Value, resolve); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range typed {
			if err := apply(child, strconv.Itoa(i), item, resolve); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := apply(child, k, typed[k], resolve); err != nil {
				return err
			}
		}
	default:
		return nil
	}
	el.Children = append(el.Children, child)
	return nil
}

func scalar(v any) (string, bool) {
	switch typed := v.(type) {
	case string:
		return typed, true
	case bool:
		if typed {
			return "TRUE", true
		}
		return "FALSE", true
	case json.Number:
		return typed.String(), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case int:
		return strconv.Itoa(typed), true
	}
	return "", false
}

func isIndex(key string) bool {
	if key == "" {
		return false
	}
	_, err := strconv.Atoi(key)
	return err == nil
}
