// Package guid normalizes site identifiers so that the template and the live
// catalog can be compared regardless of casing or brace decoration.
package guid

import (
	"strings"

	"github.com/google/uuid"
)

// Normalize returns the canonical lower-case form of id.
// Values that are not GUIDs are trimmed and lower-cased.
func Normalize(id string) string {
	s := strings.TrimSpace(id)
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return strings.ToLower(s)
}

// Equal reports whether a and b name the same identifier.
// An empty identifier never matches anything, including another empty one.
func Equal(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	return Normalize(a) == Normalize(b)
}

// Valid reports whether id parses as a non-nil GUID.
func Valid(id string) bool {
	u, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil && u != uuid.Nil
}

// New issues a fresh random identifier.
func New() string {
	return uuid.NewString()
}

// Compact returns the GUID without dashes in upper case, the form embedded in
// content type identifiers.
func Compact(id string) string {
	return strings.ToUpper(strings.ReplaceAll(Normalize(id), "-", ""))
}
