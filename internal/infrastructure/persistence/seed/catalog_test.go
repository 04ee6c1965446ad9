package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/greenbite/mealplanner/internal/domain/recipe"
	"github.com/greenbite/mealplanner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sample = `
recipes:
  - title: Shakshuka
    source_id: "52963"
    cuisine: Egyptian
    meal_time: breakfast
    calories: 420
    servings: 2
    ingredients: ["4 eggs", "1 can tomatoes", "1 onion"]
    steps: ["Soften the onion", "Add tomatoes", "Poach the eggs"]
    tags: [vegetarian]
  - title: Miso Soup
    ingredients: ["miso paste", "tofu"]
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseCatalog(t *testing.T) {
	recipes, err := ParseCatalog([]byte(sample))

	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Shakshuka", recipes[0].Title)
	assert.Equal(t, "52963", recipes[0].SourceID)
	assert.Equal(t, "breakfast", recipes[0].MealTime)
	assert.Equal(t, 420, recipes[0].Calories)
	assert.Equal(t, []string{"vegetarian"}, recipes[0].Tags)
	assert.Len(t, recipes[1].Ingredients, 2)
}

func TestParseCatalog_RejectsInvalidEntries(t *testing.T) {
	_, err := ParseCatalog([]byte("recipes:\n  - title: X\n    ingredients: [salt]\n"))
	assert.ErrorIs(t, err, recipe.ErrTitleTooShort)

	_, err = ParseCatalog([]byte("recipes:\n  - title: Plain Water\n"))
	assert.ErrorIs(t, err, recipe.ErrNoIngredients)

	_, err = ParseCatalog([]byte("recipes: {"))
	assert.Error(t, err)
}

func TestParseCatalog_ShippedFile(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "configs", "catalog.yaml"))
	require.NoError(t, err)

	recipes, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.NotEmpty(t, recipes)
}

func TestSeedCatalog_EmptyCatalog(t *testing.T) {
	ctx := context.Background()
	repo := new(testutils.MockRecipeRepository)
	repo.On("Count", ctx).Return(int64(0), nil)
	repo.On("BulkCreate", ctx, mock.MatchedBy(func(rs []*recipe.Recipe) bool { return len(rs) == 2 })).Return(nil)

	n, err := SeedCatalog(ctx, repo, writeSeed(t, sample), zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertExpectations(t)
}

func TestSeedCatalog_AlreadySeeded(t *testing.T) {
	ctx := context.Background()
	repo := new(testutils.MockRecipeRepository)
	repo.On("Count", ctx).Return(int64(12), nil)

	n, err := SeedCatalog(ctx, repo, writeSeed(t, sample), zap.NewNop())

	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything)
}

func TestSeedCatalog_NoPath(t *testing.T) {
	repo := new(testutils.MockRecipeRepository)

	n, err := SeedCatalog(context.Background(), repo, "", zap.NewNop())

	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNotCalled(t, "Count", mock.Anything)
}

func TestSeedCatalog_MissingFile(t *testing.T) {
	ctx := context.Background()
	repo := new(testutils.MockRecipeRepository)
	repo.On("Count", ctx).Return(int64(0), nil)

	_, err := SeedCatalog(ctx, repo, filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())

	assert.Error(t, err)
}
