// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/recipe"
)

// MealPlanStore is the set of plan operations available inside and outside a transaction
type MealPlanStore interface {
	// Writes used by the builder, in creation order
	CreatePlan(ctx context.Context, plan *mealplan.MealPlan) error
	CreateDay(ctx context.Context, day *mealplan.Day) error
	CreateMeal(ctx context.Context, meal *mealplan.PlannedMeal) error

	// Aggregate loads (plan with its days and meals)
	FindPlan(ctx context.Context, planID uuid.UUID) (*mealplan.MealPlan, error)
	FindPlanByDay(ctx context.Context, dayID uuid.UUID) (*mealplan.MealPlan, error)
	FindPlanByMeal(ctx context.Context, mealID uuid.UUID) (*mealplan.MealPlan, error)
	ListPlans(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*mealplan.MealPlan, int, error)

	// State transitions
	MarkDayConfirmed(ctx context.Context, dayID uuid.UUID) error
	MarkPlanConfirmed(ctx context.Context, planID uuid.UUID) error
	CommitMeal(ctx context.Context, mealID uuid.UUID, committed *mealplan.CommittedMeal) error
	MarkMealSkipped(ctx context.Context, mealID uuid.UUID) error
	DeletePlan(ctx context.Context, planID uuid.UUID) error
}

// MealPlanRepository persists meal plans. Transaction runs fn against a store bound
// to one database transaction; any error returned by fn rolls every write back.
type MealPlanRepository interface {
	MealPlanStore
	Transaction(ctx context.Context, fn func(store MealPlanStore) error) error
}

// RecipeRepository reads and seeds the stored recipe corpus
type RecipeRepository interface {
	Create(ctx context.Context, r *recipe.Recipe) error
	BulkCreate(ctx context.Context, recipes []*recipe.Recipe) error
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	List(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error)
	Count(ctx context.Context) (int64, error)
}

// PantryRepository stores per-user pantry items
type PantryRepository interface {
	Upsert(ctx context.Context, item *inventory.PantryItem) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*inventory.PantryItem, error)
	TakeUnits(ctx context.Context, ids []uuid.UUID) (short []uuid.UUID, err error)
}
