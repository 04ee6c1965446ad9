package gorm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PantryRepository implements pantry persistence using GORM
type PantryRepository struct {
	db *gorm.DB
}

// NewPantryRepository creates a new pantry repository
func NewPantryRepository(db *gorm.DB) outbound.PantryRepository {
	return &PantryRepository{db: db}
}

// Upsert inserts an item or replaces the quantity of the same-named item
func (r *PantryRepository) Upsert(ctx context.Context, item *inventory.PantryItem) error {
	model := PantryItemToModel(item)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return err
	}

	var stored PantryItemModel
	if err := r.db.WithContext(ctx).First(&stored, "user_id = ? AND name = ?", item.UserID, item.Name).Error; err != nil {
		return err
	}
	item.ID = stored.ID
	return nil
}

// FindByUser returns a user's pantry ordered by name
func (r *PantryRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*inventory.PantryItem, error) {
	var models []PantryItemModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*inventory.PantryItem, len(models))
	for i := range models {
		items[i] = ModelToPantryItem(&models[i])
	}
	return items, nil
}

// TakeUnits removes one unit from each listed item in a single statement per
// item, so concurrent callers never overwrite each other's decrements. Items
// that are already empty are left untouched and returned as short.
func (r *PantryRepository) TakeUnits(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var short []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		short = short[:0]
		now := time.Now().UTC()
		for _, id := range ids {
			res := tx.Model(&PantryItemModel{}).
				Where("id = ? AND quantity >= 1", id).
				Updates(map[string]interface{}{
					"quantity":   gorm.Expr("quantity - 1"),
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				short = append(short, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return short, nil
}
