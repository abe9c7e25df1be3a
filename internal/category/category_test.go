package category

import (
	"testing"

	"github.com/gastobot/gastobot/internal/models"
)

func categories() []*models.Category {
	return []*models.Category{
		{ID: "c1", Name: "Supermercado"},
		{ID: "c2", Name: "Transporte"},
		{ID: "c3", Name: "Salud"},
		{ID: "c4", Name: "Otros"},
		{ID: "c5", Name: "Viejo", DeletedAt: 100},
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID string
	}{
		{name: "exact", text: "Salud", wantID: "c3"},
		{name: "case and accent insensitive", text: "salúd", wantID: "c3"},
		{name: "prefix", text: "super", wantID: "c1"},
		{name: "substring", text: "mercado", wantID: "c1"},
		{name: "deleted never matches", text: "Viejo", wantID: ""},
		{name: "nothing matches", text: "inexistente", wantID: ""},
		{name: "empty text", text: "", wantID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.text, categories())
			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("expected nil, got %s", got.Name)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a match, got nil")
			}
			if got.ID != tt.wantID {
				t.Errorf("matched %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestMatchOrDefault(t *testing.T) {
	got := MatchOrDefault("inexistente", categories())
	if got == nil || got.ID != "c4" {
		t.Fatalf("expected the default category, got %+v", got)
	}

	noDefault := []*models.Category{{ID: "c1", Name: "Supermercado"}}
	if got := MatchOrDefault("inexistente", noDefault); got != nil {
		t.Fatalf("expected nil without a default category, got %s", got.Name)
	}
}

func TestSeedIncludesDefault(t *testing.T) {
	cats := Seed("owner")
	found := false
	for _, c := range cats {
		if c.Name == DefaultName {
			found = true
		}
		if c.OwnerID != "owner" {
			t.Errorf("category %s has owner %q", c.Name, c.OwnerID)
		}
	}
	if !found {
		t.Error("seed list is missing the default category")
	}
}
