package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/recipe"
	"github.com/greenbite/mealplanner/pkg/errors"
	"github.com/greenbite/mealplanner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustRecipe(t *testing.T, title string, ingredients ...string) *recipe.Recipe {
	t.Helper()
	r, err := recipe.NewRecipe(title, "", ingredients, []string{"cook"})
	require.NoError(t, err)
	return r
}

func titles(t *testing.T, p *Provider, pantry inventory.Snapshot) []string {
	t.Helper()
	var out []string
	for c, err := range p.Candidates(context.Background(), pantry) {
		require.NoError(t, err)
		out = append(out, c.Title)
	}
	return out
}

func TestProvider_PantryBias(t *testing.T) {
	repo := new(testutils.MockRecipeRepository)
	recipes := []*recipe.Recipe{
		mustRecipe(t, "Plain Toast", "2 slices bread"),
		mustRecipe(t, "Egg Fried Rice", "2 eggs", "200g rice"),
		mustRecipe(t, "Omelette", "3 eggs", "milk"),
	}
	repo.On("List", mock.Anything, 0, 50).Return(recipes, nil)

	p := NewProvider(repo, 200, zap.NewNop())

	t.Run("NoPantry_KeepsCatalogOrder", func(t *testing.T) {
		assert.Equal(t, []string{"Plain Toast", "Egg Fried Rice", "Omelette"}, titles(t, p, inventory.Snapshot{}))
	})

	t.Run("PantryMatchesFirst", func(t *testing.T) {
		pantry := inventory.Snapshot{UserID: uuid.New(), Items: []inventory.PantryItem{
			{Name: "egg", Quantity: 6},
			{Name: "rice", Quantity: 1},
			{Name: "bread", Quantity: 0},
		}}
		assert.Equal(t, []string{"Egg Fried Rice", "Omelette", "Plain Toast"}, titles(t, p, pantry))
	})
}

func TestProvider_CandidateFields(t *testing.T) {
	repo := new(testutils.MockRecipeRepository)
	r := mustRecipe(t, "Lentil Soup", "lentils")
	r.Calories = 340
	r.Servings = 4
	r.Cuisine = "Mediterranean"
	repo.On("List", mock.Anything, 0, 10).Return([]*recipe.Recipe{r}, nil)

	p := NewProvider(repo, 10, zap.NewNop())
	for c, err := range p.Candidates(context.Background(), inventory.Snapshot{}) {
		require.NoError(t, err)
		assert.Equal(t, "340", c.Calories)
		assert.Equal(t, "4", c.Serving)
		assert.Equal(t, "Mediterranean", c.Cuisine)
		assert.Equal(t, r.ID.String(), c.SourceID, "catalog id stands in for a missing source id")
		assert.Equal(t, mealplan.OriginCatalog, c.Origin)
		assert.Equal(t, "catalog", c.Provider)
	}
}

func TestProvider_Pages(t *testing.T) {
	repo := new(testutils.MockRecipeRepository)
	page := func(n, offset int) []*recipe.Recipe {
		out := make([]*recipe.Recipe, n)
		for i := range out {
			out[i] = mustRecipe(t, fmt.Sprintf("Recipe %d", offset+i), "salt")
		}
		return out
	}
	repo.On("List", mock.Anything, 0, 50).Return(page(50, 0), nil).Once()
	repo.On("List", mock.Anything, 50, 20).Return(page(5, 50), nil).Once()

	p := NewProvider(repo, 70, zap.NewNop())
	assert.Len(t, titles(t, p, inventory.Snapshot{}), 55)
	repo.AssertExpectations(t)
}

func TestProvider_RepositoryFailure(t *testing.T) {
	repo := new(testutils.MockRecipeRepository)
	repo.On("List", mock.Anything, 0, 50).Return(nil, fmt.Errorf("disk on fire"))

	p := NewProvider(repo, 50, zap.NewNop())
	var gotErr error
	for _, err := range p.Candidates(context.Background(), inventory.Snapshot{}) {
		gotErr = err
	}
	assert.True(t, errors.Is(gotErr, errors.CodeSourceUnavailable))
}
