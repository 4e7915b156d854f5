package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/core/schema"
	"github.com/example/pnp/internal/core/taxonomy"
	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/secondary"
)

// Ensure mocks implement the interfaces
var (
	_ secondary.SiteRepository   = (*mockSite)(nil)
	_ secondary.LogWriter        = (*mockLogWriter)(nil)
	_ secondary.TemplateSource   = (*mockTemplateSource)(nil)
	_ secondary.RunLogRepository = (*mockRunLogRepository)(nil)
)

const (
	rootWebID = "root-web"
	subWebID  = "sub-web"
)

// mockSite implements secondary.SiteRepository in memory.
type mockSite struct {
	mu sync.Mutex

	webs         map[string]*secondary.WebRecord // by server-relative URL
	lists        map[string][]*secondary.ListRecord
	fields       map[string][]*secondary.FieldRecord
	contentTypes map[string][]*secondary.ContentTypeRecord
	termStores   []*secondary.TermStoreRecord
	roles        map[string][]*secondary.RoleDefinitionRecord
	groups       []*secondary.SiteGroupRecord
	associated   map[string]*secondary.AssociatedGroups
	wssIDs       map[string]int // term guid -> wssId on this site

	batches          [][]effects.Effect
	termStoreLookups int

	listListsErr    error
	listFieldsErr   error
	executeBatchErr error
}

func newMockSite() *mockSite {
	return &mockSite{
		webs: map[string]*secondary.WebRecord{
			"/": {ID: rootWebID, Title: "Root", ServerRelativeURL: "/", IsRoot: true},
		},
		lists:        make(map[string][]*secondary.ListRecord),
		fields:       make(map[string][]*secondary.FieldRecord),
		contentTypes: make(map[string][]*secondary.ContentTypeRecord),
		roles:        make(map[string][]*secondary.RoleDefinitionRecord),
		associated:   make(map[string]*secondary.AssociatedGroups),
		wssIDs:       make(map[string]int),
	}
}

func (m *mockSite) addSubWeb(url string) *secondary.WebRecord {
	w := &secondary.WebRecord{ID: subWebID, Title: "Sub", ServerRelativeURL: url}
	m.webs[url] = w
	return w
}

func (m *mockSite) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockSite) allEffects() []effects.Effect {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []effects.Effect
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func (m *mockSite) GetWeb(ctx context.Context, url string) (*secondary.WebRecord, error) {
	if w, ok := m.webs[url]; ok {
		return w, nil
	}
	return nil, fmt.Errorf("web %s not found", url)
}

func (m *mockSite) GetRootWeb(ctx context.Context) (*secondary.WebRecord, error) {
	return m.webs["/"], nil
}

func (m *mockSite) ListLists(ctx context.Context, webID string) ([]*secondary.ListRecord, error) {
	if m.listListsErr != nil {
		return nil, m.listListsErr
	}
	return m.lists[webID], nil
}

func (m *mockSite) ListFields(ctx context.Context, webID string) ([]*secondary.FieldRecord, error) {
	if m.listFieldsErr != nil {
		return nil, m.listFieldsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*secondary.FieldRecord, len(m.fields[webID]))
	for i, f := range m.fields[webID] {
		c := *f
		out[i] = &c
	}
	return out, nil
}

func (m *mockSite) GetField(ctx context.Context, webID, fieldID string) (*secondary.FieldRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f := m.findField(webID, fieldID); f != nil {
		c := *f
		return &c, nil
	}
	return nil, fmt.Errorf("field %s not found", fieldID)
}

func (m *mockSite) ListContentTypes(ctx context.Context, webID string) ([]*secondary.ContentTypeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*secondary.ContentTypeRecord, len(m.contentTypes[webID]))
	for i, ct := range m.contentTypes[webID] {
		out[i] = copyContentType(ct)
	}
	return out, nil
}

func (m *mockSite) GetContentType(ctx context.Context, webID, id string) (*secondary.ContentTypeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ct := m.findContentType(webID, id); ct != nil {
		return copyContentType(ct), nil
	}
	return nil, fmt.Errorf("content type %s not found", id)
}

func (m *mockSite) ListTermStores(ctx context.Context) ([]*secondary.TermStoreRecord, error) {
	return m.termStores, nil
}

func (m *mockSite) GetDefaultSiteCollectionTermStore(ctx context.Context) (*secondary.TermStoreRecord, error) {
	m.mu.Lock()
	m.termStoreLookups++
	m.mu.Unlock()
	if len(m.termStores) == 0 {
		return nil, errors.New("no term store")
	}
	return m.termStores[0], nil
}

func (m *mockSite) ListRoleDefinitions(ctx context.Context, webID string) ([]*secondary.RoleDefinitionRecord, error) {
	return m.roles[webID], nil
}

func (m *mockSite) ListSiteGroups(ctx context.Context) ([]*secondary.SiteGroupRecord, error) {
	return m.groups, nil
}

func (m *mockSite) GetAssociatedGroups(ctx context.Context, webID string) (*secondary.AssociatedGroups, error) {
	if a, ok := m.associated[webID]; ok {
		return a, nil
	}
	return &secondary.AssociatedGroups{}, nil
}

func (m *mockSite) ValidateTaxonomyValue(ctx context.Context, webID, fieldID string, values []taxonomy.Value) (string, error) {
	out := make([]taxonomy.Value, len(values))
	for i, v := range values {
		if id, ok := m.wssIDs[v.TermGUID]; ok {
			v.WssID = id
		}
		out[i] = v
	}
	return taxonomy.Format(out), nil
}

func (m *mockSite) ExecuteBatch(ctx context.Context, webID string, batch []effects.Effect) (*secondary.BatchResult, error) {
	if m.executeBatchErr != nil {
		return nil, m.executeBatchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)

	res := &secondary.BatchResult{}
	for _, eff := range batch {
		if err := m.apply(webID, eff, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (m *mockSite) apply(webID string, eff effects.Effect, res *secondary.BatchResult) error {
	switch e := eff.(type) {
	case effects.FieldEffect:
		switch e.Operation {
		case effects.OpCreate:
			f, err := fieldFromSchema(e.SchemaXML)
			if err != nil {
				return err
			}
			m.fields[webID] = append(m.fields[webID], f)
			res.Created = append(res.Created, secondary.CreatedObject{Kind: secondary.CreatedField, Name: f.InternalName, ID: f.ID})
		case effects.OpUpdateSchema:
			f := m.findField(webID, e.FieldID)
			if f == nil {
				return fmt.Errorf("field %s not found", e.FieldID)
			}
			updated, err := fieldFromSchema(e.SchemaXML)
			if err != nil {
				return err
			}
			updated.ID = f.ID
			*f = *updated
		case effects.OpSetDefault:
			f := m.findField(webID, e.FieldID)
			if f == nil {
				return fmt.Errorf("field %s not found", e.FieldID)
			}
			f.DefaultValue = e.DefaultValue
		}
	case effects.ContentTypeEffect:
		switch e.Operation {
		case effects.OpCreate:
			id := e.ContentTypeID
			if id == "" {
				id = e.ParentID + "00" + guid.Compact(guid.New())
			}
			ct := &secondary.ContentTypeRecord{ID: id, Name: e.Name, Description: e.Description, Group: e.Group}
			if parent := m.findContentType(webID, e.ParentID); parent != nil {
				ct.FieldLinks = append(ct.FieldLinks, parent.FieldLinks...)
			}
			applyChanges(ct, e.Changes)
			m.contentTypes[webID] = append(m.contentTypes[webID], ct)
			res.Created = append(res.Created, secondary.CreatedObject{Kind: secondary.CreatedContentType, Name: ct.Name, ID: ct.ID})
		case effects.OpUpdate:
			ct := m.findContentType(webID, e.ContentTypeID)
			if ct == nil {
				return fmt.Errorf("content type %s not found", e.ContentTypeID)
			}
			applyChanges(ct, e.Changes)
		case effects.OpDelete:
			kept := m.contentTypes[webID][:0]
			for _, ct := range m.contentTypes[webID] {
				if ct.ID != e.ContentTypeID {
					kept = append(kept, ct)
				}
			}
			m.contentTypes[webID] = kept
		}
	case effects.FieldLinkEffect:
		ct := m.findContentType(webID, e.ContentTypeID)
		if ct == nil {
			return fmt.Errorf("content type %s not found", e.ContentTypeID)
		}
		switch e.Operation {
		case effects.OpAdd:
			f := m.findField(webID, e.FieldID)
			if f == nil {
				return fmt.Errorf("field %s not found", e.FieldID)
			}
			ct.FieldLinks = append(ct.FieldLinks, secondary.FieldLinkRecord{FieldID: f.ID, Name: f.InternalName, Required: e.Required, Hidden: e.Hidden})
		case effects.OpUpdate:
			for i := range ct.FieldLinks {
				if guid.Equal(ct.FieldLinks[i].FieldID, e.FieldID) {
					ct.FieldLinks[i].Required = e.Required
					ct.FieldLinks[i].Hidden = e.Hidden
				}
			}
		case effects.OpReorder:
			var ordered []secondary.FieldLinkRecord
			for _, name := range e.Order {
				for _, l := range ct.FieldLinks {
					if l.Name == name {
						ordered = append(ordered, l)
					}
				}
			}
			ct.FieldLinks = ordered
		}
	default:
		return fmt.Errorf("unexpected effect %T", eff)
	}
	return nil
}

func (m *mockSite) findField(webID, id string) *secondary.FieldRecord {
	for _, f := range m.fields[webID] {
		if guid.Equal(f.ID, id) {
			return f
		}
	}
	return nil
}

func (m *mockSite) findContentType(webID, id string) *secondary.ContentTypeRecord {
	for _, ct := range m.contentTypes[webID] {
		if strings.EqualFold(ct.ID, id) {
			return ct
		}
	}
	return nil
}

// fieldFromSchema materializes a field the way the site would, stamping a
// Version attribute on the stored schema.
func fieldFromSchema(xml string) (*secondary.FieldRecord, error) {
	el, err := schema.ParseField(xml)
	if err != nil {
		return nil, err
	}
	id, _ := el.Attr("ID")
	if id == "" {
		id = guid.New()
	}
	name, _ := el.Attr("Name")
	title, _ := el.Attr("Title")
	if name == "" {
		name = strings.ReplaceAll(title, " ", "")
	}
	typ, _ := el.Attr("Type")
	var def string
	for _, c := range el.Children {
		if c.Name == "Default" {
			def = c.Text
		}
	}
	version := 1
	if v, ok := el.Attr("Version"); ok {
		version, _ = strconv.Atoi(v)
		version++
	}
	el.SetAttr("Version", strconv.Itoa(version))
	return &secondary.FieldRecord{
		ID:           guid.Normalize(id),
		InternalName: name,
		Title:        title,
		TypeAsString: typ,
		DefaultValue: def,
		SchemaXML:    el.String(),
	}, nil
}

func applyChanges(ct *secondary.ContentTypeRecord, changes []effects.PropertyChange) {
	for _, c := range changes {
		b, _ := strconv.ParseBool(c.Value)
		switch c.Property {
		case effects.PropName:
			ct.Name = c.Value
		case effects.PropDescription:
			ct.Description = c.Value
		case effects.PropGroup:
			ct.Group = c.Value
		case effects.PropHidden:
			ct.Hidden = b
		case effects.PropSealed:
			ct.Sealed = b
		case effects.PropReadOnly:
			ct.ReadOnly = b
		case effects.PropDocumentTemplate:
			ct.DocumentTemplate = c.Value
		case effects.PropNewFormURL:
			ct.NewFormURL = c.Value
		case effects.PropEditFormURL:
			ct.EditFormURL = c.Value
		case effects.PropDisplayFormURL:
			ct.DisplayFormURL = c.Value
		}
	}
}

func copyContentType(ct *secondary.ContentTypeRecord) *secondary.ContentTypeRecord {
	c := *ct
	c.FieldLinks = append([]secondary.FieldLinkRecord(nil), ct.FieldLinks...)
	return &c
}

// mockLogWriter implements secondary.LogWriter for testing.
type mockLogWriter struct {
	mu      sync.Mutex
	entries []secondary.LogEntry
}

func (m *mockLogWriter) Write(ctx context.Context, entry secondary.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockLogWriter) count(severity string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Severity == severity {
			n++
		}
	}
	return n
}

// mockTemplateSource implements secondary.TemplateSource for testing.
type mockTemplateSource struct {
	templates   map[string]*models.Template
	validateErr error
}

func (m *mockTemplateSource) Load(ctx context.Context, path string) (*models.Template, error) {
	if t, ok := m.templates[path]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("template %s not found", path)
}

func (m *mockTemplateSource) Validate(ctx context.Context, path string) error {
	return m.validateErr
}

// mockRunLogRepository implements secondary.RunLogRepository for testing.
type mockRunLogRepository struct {
	records []*secondary.RunLogRecord
	pruned  int
}

func (m *mockRunLogRepository) Create(ctx context.Context, entry *secondary.RunLogRecord) error {
	entry.ID = int64(len(m.records) + 1)
	m.records = append(m.records, entry)
	return nil
}

func (m *mockRunLogRepository) List(ctx context.Context, filters secondary.RunLogFilters) ([]*secondary.RunLogRecord, error) {
	var result []*secondary.RunLogRecord
	for _, r := range m.records {
		if filters.RunID != "" && r.RunID != filters.RunID {
			continue
		}
		if filters.Severity != "" && r.Severity != filters.Severity {
			continue
		}
		result = append(result, r)
	}
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockRunLogRepository) Prune(ctx context.Context, olderThanDays int) (int, error) {
	return m.pruned, nil
}
