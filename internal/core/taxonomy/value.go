// Package taxonomy parses and formats managed-metadata field values.
//
// A single value is encoded as "wssId;#label|termGuid". The wssId is an index
// into the site's local taxonomy cache and is only meaningful on that site,
// which is why default values are revalidated after a field changes.
// Collections join several values with ";#".
package taxonomy

import (
	"strconv"
	"strings"

	"github.com/example/pnp/internal/core/guid"
)

const (
	TypeSingle = "TaxonomyFieldType"
	TypeMulti  = "TaxonomyFieldTypeMulti"

	sep = ";#"
)

// Value is one reference into a term set.
type Value struct {
	WssID    int
	Label    string
	TermGUID string
}

// String formats the value in its encoded form.
func (v Value) String() string {
	s := strconv.Itoa(v.WssID)
	if v.TermGUID == "" {
		return s
	}
	return s + sep + v.Label + "|" + v.TermGUID
}

// IsTaxonomyType reports whether typeAsString names a taxonomy field type.
func IsTaxonomyType(typeAsString string) bool {
	return typeAsString == TypeSingle || typeAsString == TypeMulti
}

// IsMulti reports whether typeAsString allows several values.
func IsMulti(typeAsString string) bool {
	return typeAsString == TypeMulti
}

// ParseValue parses a single encoded value. The bare "wssId" form is
// accepted. Malformed input yields false.
func ParseValue(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	parts := strings.Split(s, sep)
	switch len(parts) {
	case 1:
		id, ok := parseWssID(parts[0])
		return Value{WssID: id}, ok
	case 2:
		return parsePair(parts[0], parts[1])
	}
	return Value{}, false
}

// ParseCollection parses a ";#"-joined list of values.
func ParseCollection(s string) ([]Value, bool) {
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, sep)
	if len(parts)%2 != 0 {
		return nil, false
	}
	values := make([]Value, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		v, ok := parsePair(parts[i], parts[i+1])
		if !ok {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// Parse dispatches to ParseValue or ParseCollection.
func Parse(s string, multi bool) ([]Value, bool) {
	if multi {
		return ParseCollection(s)
	}
	v, ok := ParseValue(s)
	if !ok {
		return nil, false
	}
	return []Value{v}, true
}

// Format encodes values, joining several with ";#".
func Format(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

func parsePair(wss, term string) (Value, bool) {
	id, ok := parseWssID(wss)
	if !ok {
		return Value{}, false
	}
	label, termID := "", term
	if i := strings.LastIndex(term, "|"); i >= 0 {
		label, termID = term[:i], term[i+1:]
	}
	if !guid.Valid(termID) {
		return Value{}, false
	}
	return Value{WssID: id, Label: label, TermGUID: guid.Normalize(termID)}, true
}

func parseWssID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return id, true
}
