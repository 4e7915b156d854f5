package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/pnp/internal/core/token"
	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/secondary"
)

const termStoreGUID = "44444444-4444-4444-4444-444444444444"

func seededSite() *mockSite {
	site := newMockSite()
	site.lists[rootWebID] = []*secondary.ListRecord{
		{ID: "list-docs", Title: "Documents", RootFolderURL: "/Shared Documents"},
	}
	site.contentTypes[rootWebID] = []*secondary.ContentTypeRecord{
		{ID: "0x0101", Name: "Document"},
	}
	site.fields[rootWebID] = []*secondary.FieldRecord{
		{ID: "55555555-5555-5555-5555-555555555555", InternalName: "Title", Title: "Title", TypeAsString: "Text"},
	}
	site.termStores = []*secondary.TermStoreRecord{
		{ID: termStoreGUID, Name: "Taxonomy_1", Groups: []secondary.TermGroupRecord{
			{ID: "g1", Name: "Corp", TermSets: []secondary.TermSetRecord{{ID: "ts-colors", Name: "Colors"}}},
		}},
	}
	site.roles[rootWebID] = []*secondary.RoleDefinitionRecord{
		{ID: 1, Name: "Full Control", RoleTypeKind: "Administrator"},
		{ID: 2, Name: "Limited Access", RoleTypeKind: "Guest"},
		{ID: 3, Name: "Custom", RoleTypeKind: "None"},
	}
	site.groups = []*secondary.SiteGroupRecord{{ID: 4, Title: "Site Owners"}, {ID: 5, Title: "Site Visitors"}}
	site.associated[rootWebID] = &secondary.AssociatedGroups{
		Owner:   site.groups[0],
		Visitor: site.groups[1],
	}
	return site
}

func newTestParser(t *testing.T, site *mockSite, tpl *models.Template) (*TokenParserImpl, *mockLogWriter) {
	t.Helper()
	log := &mockLogWriter{}
	p := NewTokenParser(site, log)
	if err := p.Init(context.Background(), "", tpl); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return p, log
}

func TestTokenParser_InitDiscoversEverySource(t *testing.T) {
	tpl := &models.Template{Parameters: []models.Parameter{{Key: "owner", Value: "alice"}}}
	p, _ := newTestParser(t, seededSite(), tpl)

	counts := make(map[token.Kind]int)
	for _, d := range p.Tokens() {
		counts[d.Kind()]++
	}

	want := map[token.Kind]int{
		token.KindSiteCollectionTermStoreID: 1,
		token.KindListID:                    1,
		token.KindListURL:                   1,
		token.KindContentTypeID:             1,
		token.KindParameter:                 1,
		token.KindTermStoreID:               1,
		token.KindTermSetID:                 1,
		token.KindFieldTitle:                1,
		token.KindRoleDefinition:            2,
		token.KindGroupID:                   4,
	}
	for kind, n := range want {
		if counts[kind] != n {
			t.Errorf("%s tokens = %d, want %d", kind, counts[kind], n)
		}
	}
	if !token.IsSorted(p.Tokens()) {
		t.Error("tokens are not sorted by length")
	}
	if p.Web().ID != rootWebID {
		t.Errorf("Web().ID = %q, want %q", p.Web().ID, rootWebID)
	}
}

func TestTokenParser_ParseString(t *testing.T) {
	tpl := &models.Template{Parameters: []models.Parameter{{Key: "owner", Value: "alice"}}}
	p, _ := newTestParser(t, seededSite(), tpl)
	ctx := context.Background()

	tests := []struct {
		in   string
		want string
	}{
		{"<<contenttypeid:Document>>", "0x0101"},
		{"<<listurl:documents>>", "Shared Documents"},
		{"{{listid:Documents}} <<$owner>>", "list-docs alice"},
		{"<<termsetid:Corp:Colors>>", "ts-colors"},
		{"<<termstoreid:Taxonomy_1>>", termStoreGUID},
		{"<<sitecollectiontermstoreid>> ~sitecollectiontermstoreid", termStoreGUID + " " + termStoreGUID},
		{"{{roledefinition:Administrator}} <<groupid:associatedownergroup>>", "Full Control 4"},
		{"<<groupid:Site Visitors>> {{fieldtitle:Title}}", "5 Title"},
		{"<<unknown:thing>>", "<<unknown:thing>>"},
	}
	for _, tt := range tests {
		got, err := p.ParseString(ctx, tt.in)
		if err != nil {
			t.Fatalf("ParseString(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenParser_FastPathSkipsResolution(t *testing.T) {
	site := seededSite()
	p, _ := newTestParser(t, site, nil)

	in := "{{listid:Documents}} ~sitecollectiontermstoreid"
	got, err := p.ParseString(context.Background(), in)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got != in {
		t.Errorf("ParseString() = %q, want input unchanged", got)
	}
	if site.termStoreLookups != 0 {
		t.Errorf("expected no remote lookup, got %d", site.termStoreLookups)
	}
}

func TestTokenParser_SinglePass(t *testing.T) {
	tpl := &models.Template{Parameters: []models.Parameter{{Key: "nested", Value: "<<groupid:Site Owners>>"}}}
	p, _ := newTestParser(t, seededSite(), tpl)

	got, err := p.ParseString(context.Background(), "x <<parameter:nested>> y")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got != "x <<groupid:Site Owners>> y" {
		t.Errorf("ParseString() = %q, replacement should be inserted verbatim", got)
	}
}

func TestTokenParser_ParseStringWithSkip(t *testing.T) {
	p, _ := newTestParser(t, seededSite(), nil)

	got, err := p.ParseStringWithSkip(context.Background(),
		"<<contenttypeid:Document>> <<sitecollectiontermstoreid>>",
		[]string{"<<contenttypeid:Document>>"})
	if err != nil {
		t.Fatalf("ParseStringWithSkip() error = %v", err)
	}
	if got != "<<contenttypeid:Document>> "+termStoreGUID {
		t.Errorf("ParseStringWithSkip() = %q", got)
	}
}

func TestTokenParser_AddTokenKeepsOrder(t *testing.T) {
	p, _ := newTestParser(t, seededSite(), nil)

	p.AddToken(token.NewContentTypeID(p.Web(), "A Much Longer Content Type Name For Ordering", "0x0100FF"))
	p.AddToken(token.NewGroupID(p.Web(), "x", 9))

	if !token.IsSorted(p.Tokens()) {
		t.Error("tokens are not sorted after AddToken")
	}
	got, _ := p.ParseString(context.Background(), "<<contenttypeid:A Much Longer Content Type Name For Ordering>>")
	if got != "0x0100FF" {
		t.Errorf("ParseString() = %q, want the added token's value", got)
	}
}

func TestTokenParser_SubWebIncludesRootCatalogs(t *testing.T) {
	site := seededSite()
	site.addSubWeb("/sites/team")
	site.lists[subWebID] = []*secondary.ListRecord{
		{ID: "list-tasks", Title: "Tasks", RootFolderURL: "/sites/team/Lists/Tasks"},
	}

	p := NewTokenParser(site, nil)
	if err := p.Init(context.Background(), "/sites/team", nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, _ := p.ParseString(context.Background(), "<<listurl:Tasks>>|<<listurl:Documents>>")
	if got != "Lists/Tasks|Shared Documents" {
		t.Errorf("ParseString() = %q", got)
	}
}

func TestTokenParser_InitJoinsBranchErrors(t *testing.T) {
	site := seededSite()
	site.listListsErr = errors.New("lists unavailable")
	log := &mockLogWriter{}

	p := NewTokenParser(site, log)
	err := p.Init(context.Background(), "", nil)
	if err == nil || !strings.Contains(err.Error(), "lists unavailable") {
		t.Fatalf("Init() error = %v, want the lists failure", err)
	}

	// Every other branch still completed.
	got, _ := p.ParseString(context.Background(), "<<contenttypeid:Document>>")
	if got != "0x0101" {
		t.Errorf("ParseString() = %q, want content type tokens despite the failed branch", got)
	}
	if log.count(secondary.SeverityError) != 1 {
		t.Errorf("error log entries = %d, want 1", log.count(secondary.SeverityError))
	}
}

func TestTokenParser_UnknownWeb(t *testing.T) {
	p := NewTokenParser(seededSite(), nil)
	if err := p.Init(context.Background(), "/nope", nil); err == nil {
		t.Error("expected error for unknown web")
	}
}

func TestTokenParser_RebaseClearsCache(t *testing.T) {
	site := seededSite()
	sub := site.addSubWeb("/sites/team")
	p, _ := newTestParser(t, site, nil)
	ctx := context.Background()

	if _, err := p.ParseString(ctx, "<<sitecollectiontermstoreid>>"); err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if _, err := p.ParseString(ctx, "<<sitecollectiontermstoreid>>"); err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if site.termStoreLookups != 1 {
		t.Fatalf("lookups = %d, want 1 before rebase", site.termStoreLookups)
	}

	if err := p.Rebase(ctx, "/sites/team"); err != nil {
		t.Fatalf("Rebase() error = %v", err)
	}
	if p.Web().ID != sub.ID {
		t.Errorf("Web().ID = %q, want %q", p.Web().ID, sub.ID)
	}
	for _, d := range p.Tokens() {
		if d.Web().ID != sub.ID {
			t.Fatalf("token %s still bound to %q", d, d.Web().ID)
		}
	}

	if _, err := p.ParseString(ctx, "<<sitecollectiontermstoreid>>"); err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if site.termStoreLookups != 2 {
		t.Errorf("lookups = %d, want 2 after rebase", site.termStoreLookups)
	}
}

func TestTokenParser_UnresolvableTokenIsLeftInPlace(t *testing.T) {
	site := seededSite()
	p, log := newTestParser(t, site, nil)
	site.termStores = nil

	got, err := p.ParseString(context.Background(), "<<sitecollectiontermstoreid>> <<contenttypeid:Document>>")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got != "<<sitecollectiontermstoreid>> 0x0101" {
		t.Errorf("ParseString() = %q", got)
	}
	if log.count(secondary.SeverityWarning) == 0 {
		t.Error("expected a warning for the failed lookup")
	}
	if left := p.LeftOverTokens(got); len(left) != 1 || left[0] != "<<sitecollectiontermstoreid>>" {
		t.Errorf("LeftOverTokens() = %v", left)
	}
}
