// Package inventory provides the pantry-backed inventory service
package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.uber.org/zap"
)

// Service reads pantry context for providers and consumes stock on confirmation
type Service struct {
	pantry outbound.PantryRepository
	logger *zap.Logger
}

// NewService creates a new inventory service
func NewService(pantry outbound.PantryRepository, logger *zap.Logger) *Service {
	return &Service{
		pantry: pantry,
		logger: logger.Named("inventory-service"),
	}
}

var _ outbound.InventoryService = (*Service)(nil)

// ForContext returns the user's pantry snapshot
func (s *Service) ForContext(ctx context.Context, userID uuid.UUID) (inventory.Snapshot, error) {
	items, err := s.pantry.FindByUser(ctx, userID)
	if err != nil {
		return inventory.Snapshot{}, errors.NewPersistenceError("load pantry", err)
	}

	snap := inventory.Snapshot{UserID: userID, Items: make([]inventory.PantryItem, 0, len(items))}
	for _, it := range items {
		snap.Items = append(snap.Items, *it)
	}
	return snap, nil
}

// Consume takes one unit of every pantry item a meal's ingredients refer to.
// Ingredients the pantry does not track are ignored. Tracked items that are
// already empty are reported as insufficient stock after the rest is taken.
func (s *Service) Consume(ctx context.Context, userID uuid.UUID, meal *mealplan.PlannedMeal) error {
	items, err := s.pantry.FindByUser(ctx, userID)
	if err != nil {
		return errors.NewPersistenceError("load pantry", err)
	}

	var ids []uuid.UUID
	names := make(map[uuid.UUID]string)
	for _, line := range meal.Draft().Ingredients {
		for _, it := range items {
			if _, done := names[it.ID]; done || !it.Matches(line) {
				continue
			}
			names[it.ID] = it.Name
			ids = append(ids, it.ID)
			break
		}
	}
	if len(ids) == 0 {
		return nil
	}

	shortIDs, err := s.pantry.TakeUnits(ctx, ids)
	if err != nil {
		return errors.NewPersistenceError("consume pantry", err)
	}

	s.logger.Debug("Consumed inventory",
		zap.String("user_id", userID.String()),
		zap.String("meal_id", meal.ID().String()),
		zap.Int("items", len(ids)-len(shortIDs)),
	)

	if len(shortIDs) > 0 {
		short := make([]string, len(shortIDs))
		for i, id := range shortIDs {
			short[i] = names[id]
		}
		return errors.NewInsufficientStockError(strings.Join(short, ", "))
	}
	return nil
}

// Restock sets the quantity of a pantry item, creating it when missing
func (s *Service) Restock(ctx context.Context, userID uuid.UUID, name string, quantity float64, unit string) (*inventory.PantryItem, error) {
	item, err := inventory.NewPantryItem(userID, name, quantity, unit)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.pantry.Upsert(ctx, item); err != nil {
		return nil, errors.NewPersistenceError("restock pantry", err)
	}
	return item, nil
}

// List returns the user's pantry items
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*inventory.PantryItem, error) {
	items, err := s.pantry.FindByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewPersistenceError("load pantry", err)
	}
	return items, nil
}
