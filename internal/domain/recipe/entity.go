// Package recipe holds the stored recipe corpus that the catalog provider reads.
package recipe

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recipe is a cataloged recipe record
type Recipe struct {
	ID          uuid.UUID
	Title       string
	Cuisine     string
	MealTime    string
	Calories    int
	Servings    int
	Minutes     int
	Ingredients []string
	Steps       []string
	Tags        []string
	Photo       string
	SourceID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRecipe creates a catalog recipe with validation
func NewRecipe(title, sourceID string, ingredients, steps []string) (*Recipe, error) {
	title = strings.TrimSpace(title)
	if len(title) < 2 {
		return nil, ErrTitleTooShort
	}
	if len(title) > 255 {
		return nil, ErrTitleTooLong
	}
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}

	now := time.Now().UTC()
	return &Recipe{
		ID:          uuid.New(),
		Title:       title,
		Ingredients: ingredients,
		Steps:       steps,
		SourceID:    strings.TrimSpace(sourceID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NormalizeIngredient lowercases and trims an ingredient name for matching
func NormalizeIngredient(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Uses reports how many of the given normalized ingredient names the recipe contains.
// A pantry name matches when it appears inside an ingredient line ("2 eggs" matches "egg").
func (r *Recipe) Uses(pantry []string) int {
	hits := 0
	for _, ing := range r.Ingredients {
		line := NormalizeIngredient(ing)
		for _, p := range pantry {
			if p != "" && strings.Contains(line, p) {
				hits++
				break
			}
		}
	}
	return hits
}
