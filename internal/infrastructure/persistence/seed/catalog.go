// Package seed loads the starter recipe catalog from a YAML file
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/greenbite/mealplanner/internal/domain/recipe"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the on-disk layout of a seed file
type CatalogFile struct {
	Recipes []CatalogEntry `yaml:"recipes"`
}

// CatalogEntry is one recipe in a seed file
type CatalogEntry struct {
	Title       string   `yaml:"title"`
	SourceID    string   `yaml:"source_id"`
	Cuisine     string   `yaml:"cuisine"`
	MealTime    string   `yaml:"meal_time"`
	Calories    int      `yaml:"calories"`
	Servings    int      `yaml:"servings"`
	Minutes     int      `yaml:"minutes"`
	Ingredients []string `yaml:"ingredients"`
	Steps       []string `yaml:"steps"`
	Tags        []string `yaml:"tags"`
	Photo       string   `yaml:"photo"`
}

// ParseCatalog decodes seed YAML into recipes, rejecting invalid entries
func ParseCatalog(data []byte) ([]*recipe.Recipe, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	recipes := make([]*recipe.Recipe, 0, len(file.Recipes))
	for i, e := range file.Recipes {
		r, err := recipe.NewRecipe(e.Title, e.SourceID, e.Ingredients, e.Steps)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%q): %w", i, e.Title, err)
		}
		r.Cuisine = e.Cuisine
		r.MealTime = e.MealTime
		r.Calories = e.Calories
		r.Servings = e.Servings
		r.Minutes = e.Minutes
		r.Tags = e.Tags
		r.Photo = e.Photo
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// SeedCatalog loads path into an empty catalog. A populated catalog is left alone.
func SeedCatalog(ctx context.Context, repo outbound.RecipeRepository, path string, logger *zap.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	if count > 0 {
		logger.Debug("Catalog already seeded", zap.Int64("recipes", count))
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog seed: %w", err)
	}
	recipes, err := ParseCatalog(data)
	if err != nil {
		return 0, err
	}
	if err := repo.BulkCreate(ctx, recipes); err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}

	logger.Info("Seeded recipe catalog",
		zap.String("file", path),
		zap.Int("recipes", len(recipes)),
	)
	return len(recipes), nil
}
