// Package catalog serves candidates from the stored recipe corpus
package catalog

import (
	"context"
	"iter"
	"sort"
	"strconv"

	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/recipe"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.uber.org/zap"
)

const pageSize = 50

// Provider yields cataloged recipes, those using the most pantry ingredients first.
// Ties keep catalog order.
type Provider struct {
	repo   outbound.RecipeRepository
	limit  int
	logger *zap.Logger
}

// NewProvider creates a catalog provider reading at most limit recipes per request
func NewProvider(repo outbound.RecipeRepository, limit int, logger *zap.Logger) *Provider {
	if limit <= 0 {
		limit = 200
	}
	return &Provider{
		repo:   repo,
		limit:  limit,
		logger: logger.Named("catalog-provider"),
	}
}

var _ outbound.RecipeProvider = (*Provider)(nil)

// Name identifies the provider
func (p *Provider) Name() string { return "catalog" }

// Candidates reads the catalog once the sequence is first pulled
func (p *Provider) Candidates(ctx context.Context, pantry inventory.Snapshot) iter.Seq2[mealplan.RecipeCandidate, error] {
	return func(yield func(mealplan.RecipeCandidate, error) bool) {
		recipes, err := p.load(ctx)
		if err != nil {
			yield(mealplan.RecipeCandidate{}, errors.NewSourceUnavailableError(p.Name(), err))
			return
		}

		names := pantry.IngredientNames()
		if len(names) > 0 {
			hits := make(map[*recipe.Recipe]int, len(recipes))
			for _, r := range recipes {
				hits[r] = r.Uses(names)
			}
			sort.SliceStable(recipes, func(i, j int) bool {
				return hits[recipes[i]] > hits[recipes[j]]
			})
		}

		p.logger.Debug("Serving catalog recipes",
			zap.Int("recipes", len(recipes)),
			zap.Int("pantry_items", len(names)),
		)

		for _, r := range recipes {
			if !yield(toCandidate(r, p.Name()), nil) {
				return
			}
		}
	}
}

func (p *Provider) load(ctx context.Context) ([]*recipe.Recipe, error) {
	var out []*recipe.Recipe
	for offset := 0; offset < p.limit; offset += pageSize {
		size := min(pageSize, p.limit-offset)
		page, err := p.repo.List(ctx, offset, size)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < size {
			break
		}
	}
	return out, nil
}

func toCandidate(r *recipe.Recipe, provider string) mealplan.RecipeCandidate {
	c := mealplan.RecipeCandidate{
		Title:       r.Title,
		Ingredients: r.Ingredients,
		Steps:       r.Steps,
		Cuisine:     r.Cuisine,
		Photo:       r.Photo,
		SourceID:    r.SourceID,
		Origin:      mealplan.OriginCatalog,
		Provider:    provider,
	}
	if r.Calories > 0 {
		c.Calories = strconv.Itoa(r.Calories)
	}
	if r.Servings > 0 {
		c.Serving = strconv.Itoa(r.Servings)
	}
	if c.SourceID == "" {
		c.SourceID = r.ID.String()
	}
	return c
}
