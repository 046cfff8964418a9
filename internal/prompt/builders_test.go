package prompt

import (
	"strings"
	"testing"

	"github.com/listforge/listforge-backend/internal/types"
)

func TestBuildNodeMetadataWinsOverLegacy(t *testing.T) {
	pc := Context{
		Product: ProductFields{
			Name:        "Acme Mug",
			KeyFeatures: "Insulated, 12oz",
		},
		Legacy: LegacyFields{
			Features: []string{"Old feature list"},
			Keywords: []string{"old keyword"},
		},
		Profile: ProfileFields{
			TargetAudience: "profile audience",
		},
	}

	p, err := Build(types.ContentTypeTitle, pc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, "Acme Mug") {
		t.Fatalf("expected product name in prompt, got:\n%s", p.User)
	}
	if !strings.Contains(p.User, "Insulated, 12oz") {
		t.Fatalf("expected node key features in prompt, got:\n%s", p.User)
	}
	if strings.Contains(p.User, "Old feature list") {
		t.Fatalf("legacy features leaked into prompt despite node metadata:\n%s", p.User)
	}
	if !strings.Contains(p.User, "old keyword") {
		t.Fatalf("expected legacy keywords when node keywords empty, got:\n%s", p.User)
	}
	if !strings.Contains(p.User, "profile audience") {
		t.Fatalf("expected profile audience fallback, got:\n%s", p.User)
	}
}

func TestBuildProfileFallbackOnlyWhenUpperTiersEmpty(t *testing.T) {
	pc := Context{
		Product: ProductFields{
			Name:           "Acme Mug",
			TargetAudience: "node audience",
		},
		Profile: ProfileFields{
			TargetAudience: "profile audience",
			BrandName:      "Acme Co",
		},
	}

	p, err := Build(types.ContentTypeBulletPoints, pc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, "node audience") {
		t.Fatalf("expected node audience, got:\n%s", p.User)
	}
	if strings.Contains(p.User, "profile audience") {
		t.Fatalf("profile audience leaked past node value:\n%s", p.User)
	}
	if !strings.Contains(p.User, "Acme Co") {
		t.Fatalf("expected profile brand name fallback, got:\n%s", p.User)
	}
}

func TestBuildBrandKitOverridesProfile(t *testing.T) {
	pc := Context{
		Product: ProductFields{Name: "Acme Mug"},
		Profile: ProfileFields{BrandName: "Profile Brand", BrandVoice: "profile voice"},
		Brand:   &BrandFields{Name: "Kit Brand", Voice: "kit voice", Palette: "#102030, #405060"},
	}

	p, err := Build(types.ContentTypeHeroImage, pc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, "Kit Brand") || strings.Contains(p.User, "Profile Brand") {
		t.Fatalf("brand kit name should win over profile, got:\n%s", p.User)
	}
	if !strings.Contains(p.User, "#102030") {
		t.Fatalf("expected brand colors in image prompt, got:\n%s", p.User)
	}
}

func TestBuildOmitsAbsentFields(t *testing.T) {
	p, err := Build(types.ContentTypeTitle, Context{Product: ProductFields{Name: "Acme Mug"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, label := range []string{"Key features:", "Target keywords:", "Brand name:", "ASIN:"} {
		if strings.Contains(p.User, label) {
			t.Fatalf("empty field %q rendered:\n%s", label, p.User)
		}
	}
}

func TestBuildEachContentTypeHasDistinctSystemPrompt(t *testing.T) {
	seen := map[string]types.ContentType{}
	for _, ct := range types.AllContentTypes {
		p, err := Build(ct, Context{Product: ProductFields{Name: "Acme Mug"}})
		if err != nil {
			t.Fatalf("Build(%s): %v", ct, err)
		}
		if p.System == "" {
			t.Fatalf("empty system prompt for %s", ct)
		}
		if prev, dup := seen[p.System]; dup {
			t.Fatalf("content types %s and %s share a system prompt", prev, ct)
		}
		seen[p.System] = ct
		if p.MaxTokens <= 0 {
			t.Fatalf("non-positive max tokens for %s", ct)
		}
	}
}

func TestBuildRejectsUnknownContentType(t *testing.T) {
	if _, err := Build(types.ContentType("poster"), Context{}); err == nil {
		t.Fatal("expected error for unknown content type")
	}
}

func TestBuildRefinementIncludesDraftAndInstruction(t *testing.T) {
	pc := Context{Product: ProductFields{Name: "Acme Mug"}}
	p, err := BuildRefinement(types.ContentTypeTitle, pc, "Acme Mug 12oz Insulated Travel Mug",
		[]types.ChatMessage{{Role: "user", Message: "make it shorter"}},
		"mention the lid")
	if err != nil {
		t.Fatalf("BuildRefinement: %v", err)
	}
	if !strings.Contains(p.User, "Acme Mug 12oz Insulated Travel Mug") {
		t.Fatalf("draft missing from refinement prompt:\n%s", p.User)
	}
	if !strings.Contains(p.User, "make it shorter") {
		t.Fatalf("history missing from refinement prompt:\n%s", p.User)
	}
	if !strings.Contains(p.User, "mention the lid") {
		t.Fatalf("instruction missing from refinement prompt:\n%s", p.User)
	}
}
