// Package field contains the pure reconcile logic for site fields.
// This is part of the Functional Core - no I/O, only pure functions.
package field

import (
	"fmt"

	"github.com/example/pnp/internal/core/taxonomy"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanChangeSchema evaluates whether a live field may take a declared schema.
// Rule: a field never changes type in place.
func CanChangeSchema(fieldID, liveType, declaredType string) GuardResult {
	if liveType != declaredType {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("field %s is %s on the site but declared as %s - type changes are not applied", fieldID, liveType, declaredType),
		}
	}
	return GuardResult{Allowed: true}
}

// NeedsTaxonomyValidation reports whether a field's default value must be
// revalidated against the term store.
func NeedsTaxonomyValidation(typeAsString, defaultValue string) bool {
	return taxonomy.IsTaxonomyType(typeAsString) && defaultValue != ""
}
