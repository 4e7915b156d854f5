package sqlite_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/pnp/internal/adapters/sqlite"
	"github.com/example/pnp/internal/db"
	"github.com/example/pnp/internal/ports/secondary"
)

func TestSiteRepository_Webs(t *testing.T) {
	repo := sqlite.NewSiteRepository(setupSeededDB(t))
	ctx := context.Background()

	root, err := repo.GetWeb(ctx, "")
	if err != nil {
		t.Fatalf("GetWeb(\"\") failed: %v", err)
	}
	if root.ID != db.SeedRootWebID || !root.IsRoot || root.ServerRelativeURL != "/" {
		t.Errorf("root web = %+v", root)
	}

	sub, err := repo.GetWeb(ctx, "/Projects")
	if err != nil {
		t.Fatalf("GetWeb(/Projects) failed: %v", err)
	}
	if sub.ID != db.SeedProjectsWebID || sub.IsRoot {
		t.Errorf("sub web = %+v", sub)
	}

	if _, err := repo.GetWeb(ctx, "/nope"); err == nil {
		t.Error("expected error for unknown web")
	}
}

func TestSiteRepository_ListsAndFields(t *testing.T) {
	repo := sqlite.NewSiteRepository(setupSeededDB(t))
	ctx := context.Background()

	lists, err := repo.ListLists(ctx, db.SeedRootWebID)
	if err != nil {
		t.Fatalf("ListLists failed: %v", err)
	}
	if len(lists) != 2 || lists[0].Title != "Documents" || lists[0].RootFolderURL != "/Shared Documents" {
		t.Errorf("lists = %+v", lists)
	}

	fields, err := repo.ListFields(ctx, db.SeedRootWebID)
	if err != nil {
		t.Fatalf("ListFields failed: %v", err)
	}
	var names []string
	for _, f := range fields {
		names = append(names, f.InternalName)
	}
	if diff := cmp.Diff([]string{"Title", "FileLeafRef", "_Comments"}, names); diff != "" {
		t.Errorf("field names mismatch (-want +got):\n%s", diff)
	}

	title, err := repo.GetField(ctx, db.SeedRootWebID, "{FA564E0F-0C70-4AB9-B863-0177E6DDD247}")
	if err != nil {
		t.Fatalf("GetField failed: %v", err)
	}
	if title.InternalName != "Title" || title.Group != "_Hidden" {
		t.Errorf("field = %+v", title)
	}

	if _, err := repo.GetField(ctx, db.SeedProjectsWebID, db.SeedTitleFieldID); err == nil {
		t.Error("fields are scoped to their web")
	}
}

func TestSiteRepository_ContentTypes(t *testing.T) {
	repo := sqlite.NewSiteRepository(setupSeededDB(t))
	ctx := context.Background()

	cts, err := repo.ListContentTypes(ctx, db.SeedRootWebID)
	if err != nil {
		t.Fatalf("ListContentTypes failed: %v", err)
	}
	if len(cts) != 3 {
		t.Fatalf("got %d content types, want 3", len(cts))
	}

	doc, err := repo.GetContentType(ctx, db.SeedRootWebID, "0x0101")
	if err != nil {
		t.Fatalf("GetContentType failed: %v", err)
	}
	want := []secondary.FieldLinkRecord{
		{FieldID: "8553196d-ec8d-4564-9861-3dbe931050c8", Name: "FileLeafRef", Required: true},
		{FieldID: db.SeedTitleFieldID, Name: "Title"},
	}
	if diff := cmp.Diff(want, doc.FieldLinks); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	if doc.Group != "Document Content Types" {
		t.Errorf("Group = %q", doc.Group)
	}
}

func TestSiteRepository_TaxonomyAndSecurity(t *testing.T) {
	repo := sqlite.NewSiteRepository(setupSeededDB(t))
	ctx := context.Background()

	stores, err := repo.ListTermStores(ctx)
	if err != nil {
		t.Fatalf("ListTermStores failed: %v", err)
	}
	wantStores := []*secondary.TermStoreRecord{{
		ID:   db.SeedTermStoreID,
		Name: "Taxonomy_Contoso",
		Groups: []secondary.TermGroupRecord{{
			ID:       "9d8c7b6a-5f4e-4d3c-2b1a-0f9e8d7c6b5a",
			Name:     "Corporate",
			TermSets: []secondary.TermSetRecord{{ID: db.SeedColorsTermSet, Name: "Colors"}},
		}},
	}}
	if diff := cmp.Diff(wantStores, stores); diff != "" {
		t.Errorf("term stores mismatch (-want +got):\n%s", diff)
	}

	def, err := repo.GetDefaultSiteCollectionTermStore(ctx)
	if err != nil || def.ID != db.SeedTermStoreID {
		t.Errorf("default term store = %+v, %v", def, err)
	}

	roles, err := repo.ListRoleDefinitions(ctx, db.SeedRootWebID)
	if err != nil || len(roles) != 6 {
		t.Errorf("roles = %d, %v", len(roles), err)
	}

	groups, err := repo.ListSiteGroups(ctx)
	if err != nil || len(groups) != 3 {
		t.Errorf("groups = %d, %v", len(groups), err)
	}

	assoc, err := repo.GetAssociatedGroups(ctx, db.SeedProjectsWebID)
	if err != nil {
		t.Fatalf("GetAssociatedGroups failed: %v", err)
	}
	if assoc.Visitor.Title != "Contoso Visitors" || assoc.Member.ID != 5 || assoc.Owner.Title != "Contoso Owners" {
		t.Errorf("associated = %+v %+v %+v", assoc.Visitor, assoc.Member, assoc.Owner)
	}
}

func TestSiteRepository_EmptySite(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewSiteRepository(testDB)
	ctx := context.Background()

	if _, err := repo.GetRootWeb(ctx); err == nil {
		t.Error("expected error without a root web")
	}
	if _, err := repo.GetDefaultSiteCollectionTermStore(ctx); err == nil {
		t.Error("expected error without a term store")
	}

	seedWeb(t, testDB, "w1", "/", "")
	assoc, err := repo.GetAssociatedGroups(ctx, "w1")
	if err != nil {
		t.Fatalf("GetAssociatedGroups failed: %v", err)
	}
	if assoc.Visitor != nil || assoc.Member != nil || assoc.Owner != nil {
		t.Errorf("expected no associations, got %+v", assoc)
	}
}
