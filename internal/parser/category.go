package parser

import "strings"

// categoryKeywords drives the group-mode categorizer. First category whose
// keyword appears in the description wins.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"food", []string{"comida", "cena", "almuerzo", "desayuno", "restaurante", "restaurant", "pizza", "asado", "supermercado", "super", "birra", "cerveza", "vino", "bebida"}},
	{"transport", []string{"taxi", "uber", "cabify", "remis", "nafta", "combustible", "peaje", "micro", "colectivo", "bondi", "tren", "subte", "avion", "vuelo"}},
	{"accommodation", []string{"hotel", "hostel", "airbnb", "alquiler", "cabaña", "departamento", "depto"}},
	{"entertainment", []string{"entrada", "entradas", "cine", "teatro", "recital", "boliche", "juego", "cancha", "partido"}},
}

// CategoryDefault is used when no keyword matches.
const CategoryDefault = "general"

// categoryEmoji decorates confirmations per category.
var categoryEmoji = map[string]string{
	"food":          "🍽️",
	"transport":     "🚗",
	"accommodation": "🏨",
	"entertainment": "🎉",
	CategoryDefault: "📌",
}

// Categorize picks a category for an expense description by keyword match.
func Categorize(description string) string {
	lower := strings.ToLower(description)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.name
			}
		}
	}
	return CategoryDefault
}

// CategoryEmoji returns the emoji shown next to a category name.
func CategoryEmoji(category string) string {
	if e, ok := categoryEmoji[category]; ok {
		return e
	}
	return categoryEmoji[CategoryDefault]
}
