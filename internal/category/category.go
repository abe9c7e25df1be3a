// Package category matches free-form category text against a participant's
// own category list.
package category

import (
	"strings"

	"github.com/gastobot/gastobot/internal/mentions"
	"github.com/gastobot/gastobot/internal/models"
)

// DefaultName is the catch-all category a payment lands in when nothing
// matches.
const DefaultName = "Otros"

// Match finds the category whose name best matches the given text, trying
// progressively looser comparisons: exact, prefix, then substring. Tombstoned
// categories never match. Returns nil when nothing does.
func Match(text string, categories []*models.Category) *models.Category {
	query := mentions.Normalize(text)
	if query == "" {
		return nil
	}

	live := categories[:0:0]
	for _, c := range categories {
		if c.DeletedAt == 0 {
			live = append(live, c)
		}
	}

	for _, c := range live {
		if mentions.Normalize(c.Name) == query {
			return c
		}
	}
	for _, c := range live {
		if strings.HasPrefix(mentions.Normalize(c.Name), query) {
			return c
		}
	}
	for _, c := range live {
		if strings.Contains(mentions.Normalize(c.Name), query) {
			return c
		}
	}
	return nil
}

// MatchOrDefault is Match, falling back to the owner's default category.
// When the list has no default either, it returns nil and the caller stores
// the payment uncategorized.
func MatchOrDefault(text string, categories []*models.Category) *models.Category {
	if c := Match(text, categories); c != nil {
		return c
	}
	for _, c := range categories {
		if c.DeletedAt == 0 && c.Name == DefaultName {
			return c
		}
	}
	return nil
}

// Seed is the category list a new personal-mode participant starts with.
func Seed(ownerID string) []*models.Category {
	names := []struct{ name, color string }{
		{"Supermercado", "#4CAF50"},
		{"Transporte", "#2196F3"},
		{"Servicios", "#FF9800"},
		{"Salud", "#E91E63"},
		{"Entretenimiento", "#9C27B0"},
		{"Comida", "#F44336"},
		{DefaultName, "#607D8B"},
	}
	cats := make([]*models.Category, len(names))
	for i, n := range names {
		cats[i] = &models.Category{OwnerID: ownerID, Name: n.name, Color: n.color}
	}
	return cats
}
