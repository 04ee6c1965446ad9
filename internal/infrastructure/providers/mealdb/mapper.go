package mealdb

import (
	"fmt"
	"strings"

	"github.com/greenbite/mealplanner/internal/domain/mealplan"
)

const maxIngredients = 20

// ToCandidate maps a raw meal onto a candidate. Missing fields stay empty.
func ToCandidate(m Meal, provider string) mealplan.RecipeCandidate {
	return mealplan.RecipeCandidate{
		Title:       m.str("strMeal"),
		Ingredients: m.ingredients(),
		Steps:       splitSteps(m.str("strInstructions")),
		Cuisine:     m.str("strArea"),
		Photo:       m.str("strMealThumb"),
		SourceID:    m.str("idMeal"),
		Origin:      mealplan.OriginExternal,
		Provider:    provider,
	}
}

func (m Meal) str(key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// ingredients pairs strIngredientN with strMeasureN, as "measure ingredient"
func (m Meal) ingredients() []string {
	out := make([]string, 0, maxIngredients)
	for i := 1; i <= maxIngredients; i++ {
		name := m.str(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		if measure := m.str(fmt.Sprintf("strMeasure%d", i)); measure != "" {
			name = measure + " " + name
		}
		out = append(out, name)
	}
	return out
}

func splitSteps(instructions string) []string {
	lines := strings.FieldsFunc(instructions, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
