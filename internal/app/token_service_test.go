package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/pnp/internal/models"
	"github.com/example/pnp/internal/ports/primary"
)

func TestTokenService_ListTokens(t *testing.T) {
	templates := &mockTemplateSource{templates: map[string]*models.Template{
		"site.json": {Parameters: []models.Parameter{{Key: "owner", Value: "alice"}}},
	}}
	svc := NewTokenService(seededSite(), templates, &mockLogWriter{})

	infos, err := svc.ListTokens(context.Background(), primary.TokenRequest{TemplatePath: "site.json"})
	if err != nil {
		t.Fatalf("ListTokens() error = %v", err)
	}

	var param *primary.TokenInfo
	for i := 1; i < len(infos); i++ {
		if infos[i].Length < infos[i-1].Length {
			t.Errorf("tokens not sorted by length at %d", i)
		}
	}
	for _, info := range infos {
		if info.Kind == "parameter" {
			param = info
		}
	}
	if param == nil {
		t.Fatal("parameter token missing")
	}
	if param.Value != "alice" || param.Err != "" {
		t.Errorf("parameter token = %+v", param)
	}
}

func TestTokenService_Parse(t *testing.T) {
	svc := NewTokenService(seededSite(), &mockTemplateSource{}, &mockLogWriter{})

	res, err := svc.Parse(context.Background(), primary.TokenRequest{
		Input: "<<contenttypeid:Document>> <<listurl:Documents>> {{nope}}",
		Skip:  []string{"<<listurl:Documents>>"},
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.Output != "0x0101 <<listurl:Documents>> {{nope}}" {
		t.Errorf("Output = %q", res.Output)
	}
	if len(res.LeftOvers) != 2 {
		t.Errorf("LeftOvers = %v, want the skipped and the unknown token", res.LeftOvers)
	}
}

func TestTokenService_PartialDiscovery(t *testing.T) {
	site := seededSite()
	site.listListsErr = errors.New("lists unavailable")
	svc := NewTokenService(site, &mockTemplateSource{}, &mockLogWriter{})

	infos, err := svc.ListTokens(context.Background(), primary.TokenRequest{})
	if err == nil {
		t.Fatal("expected the discovery error")
	}
	if len(infos) == 0 {
		t.Error("tokens from the healthy branches must still be listed")
	}
}

func TestTokenService_MissingTemplate(t *testing.T) {
	svc := NewTokenService(seededSite(), &mockTemplateSource{}, &mockLogWriter{})

	if _, err := svc.ListTokens(context.Background(), primary.TokenRequest{TemplatePath: "missing.json"}); err == nil {
		t.Error("expected error")
	}
}
