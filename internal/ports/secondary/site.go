// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/taxonomy"
)

// SiteRepository defines the secondary port for the provisioned site.
// Reads load catalogs; every mutation goes through ExecuteBatch.
type SiteRepository interface {
	// GetWeb retrieves a web by its server-relative URL.
	GetWeb(ctx context.Context, serverRelativeURL string) (*WebRecord, error)

	// GetRootWeb retrieves the root web of the site collection.
	GetRootWeb(ctx context.Context) (*WebRecord, error)

	// ListLists retrieves the lists of a web.
	ListLists(ctx context.Context, webID string) ([]*ListRecord, error)

	// ListFields retrieves the site fields of a web.
	ListFields(ctx context.Context, webID string) ([]*FieldRecord, error)

	// GetField retrieves one site field by its identifier.
	GetField(ctx context.Context, webID, fieldID string) (*FieldRecord, error)

	// ListContentTypes retrieves the content types of a web with their field links.
	ListContentTypes(ctx context.Context, webID string) ([]*ContentTypeRecord, error)

	// GetContentType retrieves one content type by its identifier.
	GetContentType(ctx context.Context, webID, contentTypeID string) (*ContentTypeRecord, error)

	// ListTermStores retrieves every term store with its groups and term sets.
	ListTermStores(ctx context.Context) ([]*TermStoreRecord, error)

	// GetDefaultSiteCollectionTermStore retrieves the term store bound to the site collection.
	GetDefaultSiteCollectionTermStore(ctx context.Context) (*TermStoreRecord, error)

	// ListRoleDefinitions retrieves the role definitions of a web.
	ListRoleDefinitions(ctx context.Context, webID string) ([]*RoleDefinitionRecord, error)

	// ListSiteGroups retrieves the site collection's groups.
	ListSiteGroups(ctx context.Context) ([]*SiteGroupRecord, error)

	// GetAssociatedGroups retrieves the visitor, member and owner groups of a web.
	GetAssociatedGroups(ctx context.Context, webID string) (*AssociatedGroups, error)

	// ValidateTaxonomyValue returns the canonical encoded form of values for
	// a taxonomy field, with wssIds valid on this site.
	ValidateTaxonomyValue(ctx context.Context, webID, fieldID string, values []taxonomy.Value) (string, error)

	// ExecuteBatch applies the effects in order and commits them as one unit.
	ExecuteBatch(ctx context.Context, webID string, batch []effects.Effect) (*BatchResult, error)
}

// WebRecord represents a web.
type WebRecord struct {
	ID                string
	Title             string
	ServerRelativeURL string
	IsRoot            bool
}

// ListRecord represents a list.
type ListRecord struct {
	ID            string
	Title         string
	RootFolderURL string // server-relative
}

// FieldRecord represents a site field.
type FieldRecord struct {
	ID           string
	InternalName string
	Title        string
	TypeAsString string
	Group        string
	DefaultValue string
	SchemaXML    string
}

// ContentTypeRecord represents a content type.
type ContentTypeRecord struct {
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
	FieldLinks       []FieldLinkRecord
}

// FieldLinkRecord represents a content type's link to a site field.
type FieldLinkRecord struct {
	FieldID  string
	Name     string
	Required bool
	Hidden   bool
}

// TermStoreRecord represents a term store.
type TermStoreRecord struct {
	ID     string
	Name   string
	Groups []TermGroupRecord
}

// TermGroupRecord represents a term group.
type TermGroupRecord struct {
	ID       string
	Name     string
	TermSets []TermSetRecord
}

// TermSetRecord represents a term set.
type TermSetRecord struct {
	ID   string
	Name string
}

// RoleDefinitionRecord represents a permission level.
type RoleDefinitionRecord struct {
	ID           int
	Name         string
	RoleTypeKind string // e.g. "Reader", "Contributor"; "None" for custom levels
}

// SiteGroupRecord represents a site group.
type SiteGroupRecord struct {
	ID    int
	Title string
}

// AssociatedGroups holds a web's well-known groups. Any may be nil.
type AssociatedGroups struct {
	Visitor *SiteGroupRecord
	Member  *SiteGroupRecord
	Owner   *SiteGroupRecord
}

// Kinds of created objects reported in a BatchResult.
const (
	CreatedField       = "field"
	CreatedContentType = "content_type"
)

// CreatedObject is an object issued by a committed batch.
type CreatedObject struct {
	Kind string
	Name string // internal name for fields, name for content types
	ID   string
}

// BatchResult reports what a committed batch created.
type BatchResult struct {
	Created []CreatedObject
}

// First returns the first created object of the given kind.
func (r *BatchResult) First(kind string) (CreatedObject, bool) {
	if r == nil {
		return CreatedObject{}, false
	}
	for _, c := range r.Created {
		if c.Kind == kind {
			return c, true
		}
	}
	return CreatedObject{}, false
}

// CreatedID returns the identifier issued for the named object.
func (r *BatchResult) CreatedID(kind, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, c := range r.Created {
		if c.Kind == kind && c.Name == name {
			return c.ID, true
		}
	}
	return "", false
}
