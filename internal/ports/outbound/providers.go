package outbound

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
)

// RecipeProvider produces a lazy, finite sequence of candidates from one source.
// "No results" is an empty sequence; a non-nil error ends the sequence and means
// the source failed to fetch or transform.
type RecipeProvider interface {
	Name() string
	Candidates(ctx context.Context, pantry inventory.Snapshot) iter.Seq2[mealplan.RecipeCandidate, error]
}

// InventoryService is the read side used to bias retrieval and the write side
// used when a day is confirmed
type InventoryService interface {
	ForContext(ctx context.Context, userID uuid.UUID) (inventory.Snapshot, error)
	Consume(ctx context.Context, userID uuid.UUID, meal *mealplan.PlannedMeal) error
}

// TextGenerator produces free text from a prompt (LLM backends)
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Name() string
}
