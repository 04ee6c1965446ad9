package testutils

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/recipe"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// StaticProvider yields a fixed list of candidates, then Err if set
type StaticProvider struct {
	ProviderName string
	Items        []mealplan.RecipeCandidate
	Err          error
	// Pulled counts how many candidates were handed out
	Pulled int
}

var _ outbound.RecipeProvider = (*StaticProvider)(nil)

// Name returns the provider name
func (p *StaticProvider) Name() string { return p.ProviderName }

// Candidates yields Items in order
func (p *StaticProvider) Candidates(_ context.Context, _ inventory.Snapshot) iter.Seq2[mealplan.RecipeCandidate, error] {
	return func(yield func(mealplan.RecipeCandidate, error) bool) {
		for _, c := range p.Items {
			p.Pulled++
			if !yield(c, nil) {
				return
			}
		}
		if p.Err != nil {
			yield(mealplan.RecipeCandidate{}, p.Err)
		}
	}
}

// PanickingProvider panics on first pull
type PanickingProvider struct{}

// Name returns the provider name
func (PanickingProvider) Name() string { return "panicking" }

// Candidates panics when iterated
func (PanickingProvider) Candidates(context.Context, inventory.Snapshot) iter.Seq2[mealplan.RecipeCandidate, error] {
	return func(func(mealplan.RecipeCandidate, error) bool) {
		panic("provider exploded")
	}
}

// MockInventoryService provides a mock implementation of InventoryService
type MockInventoryService struct {
	mock.Mock
}

var _ outbound.InventoryService = (*MockInventoryService)(nil)

// ForContext returns the mocked snapshot
func (m *MockInventoryService) ForContext(ctx context.Context, userID uuid.UUID) (inventory.Snapshot, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(inventory.Snapshot), args.Error(1)
}

// Consume records the consumed meal
func (m *MockInventoryService) Consume(ctx context.Context, userID uuid.UUID, meal *mealplan.PlannedMeal) error {
	args := m.Called(ctx, userID, meal)
	return args.Error(0)
}

// MockTextGenerator provides a mock implementation of TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

var _ outbound.TextGenerator = (*MockTextGenerator)(nil)

// GenerateContent returns the mocked text
func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// Name returns the backend name
func (m *MockTextGenerator) Name() string { return "mock-llm" }

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

var _ outbound.RecipeRepository = (*MockRecipeRepository)(nil)

func (m *MockRecipeRepository) Create(ctx context.Context, r *recipe.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRecipeRepository) BulkCreate(ctx context.Context, recipes []*recipe.Recipe) error {
	return m.Called(ctx, recipes).Error(0)
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*recipe.Recipe); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, offset, limit)
	if r, ok := args.Get(0).([]*recipe.Recipe); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecipeRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
