package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"gorm.io/gorm"
)

// MealPlanRepository implements the meal plan repository interface using GORM
type MealPlanRepository struct {
	db *gorm.DB
}

// NewMealPlanRepository creates a new meal plan repository
func NewMealPlanRepository(db *gorm.DB) outbound.MealPlanRepository {
	return &MealPlanRepository{db: db}
}

// Transaction runs fn with a store bound to a single database transaction
func (r *MealPlanRepository) Transaction(ctx context.Context, fn func(store outbound.MealPlanStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MealPlanRepository{db: tx})
	})
}

// CreatePlan inserts the plan header
func (r *MealPlanRepository) CreatePlan(ctx context.Context, plan *mealplan.MealPlan) error {
	return r.db.WithContext(ctx).Omit("DayList").Create(PlanToModel(plan)).Error
}

// CreateDay inserts one day
func (r *MealPlanRepository) CreateDay(ctx context.Context, day *mealplan.Day) error {
	return r.db.WithContext(ctx).Omit("Meals").Create(DayToModel(day)).Error
}

// CreateMeal inserts one filled slot
func (r *MealPlanRepository) CreateMeal(ctx context.Context, meal *mealplan.PlannedMeal) error {
	return r.db.WithContext(ctx).Create(MealToModel(meal)).Error
}

func (r *MealPlanRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("DayList", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		}).
		Preload("DayList.Meals", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// FindPlan loads a plan with its days and meals
func (r *MealPlanRepository) FindPlan(ctx context.Context, planID uuid.UUID) (*mealplan.MealPlan, error) {
	var model MealPlanModel
	if err := r.preloaded(ctx).First(&model, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mealplan.ErrPlanNotFound
		}
		return nil, err
	}
	return ModelToPlan(&model), nil
}

// FindPlanByDay loads the plan that owns a day
func (r *MealPlanRepository) FindPlanByDay(ctx context.Context, dayID uuid.UUID) (*mealplan.MealPlan, error) {
	var day MealPlanDayModel
	if err := r.db.WithContext(ctx).Select("id", "meal_plan_id").First(&day, "id = ?", dayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mealplan.ErrDayNotFound
		}
		return nil, err
	}
	return r.FindPlan(ctx, day.MealPlanID)
}

// FindPlanByMeal loads the plan that owns a meal slot
func (r *MealPlanRepository) FindPlanByMeal(ctx context.Context, mealID uuid.UUID) (*mealplan.MealPlan, error) {
	var meal MealPlanMealModel
	if err := r.db.WithContext(ctx).Select("id", "meal_plan_day_id").First(&meal, "id = ?", mealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mealplan.ErrMealNotFound
		}
		return nil, err
	}
	plan, err := r.FindPlanByDay(ctx, meal.MealPlanDayID)
	if errors.Is(err, mealplan.ErrDayNotFound) {
		return nil, mealplan.ErrMealNotFound
	}
	return plan, err
}

// ListPlans returns a user's plans, newest first
func (r *MealPlanRepository) ListPlans(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*mealplan.MealPlan, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&MealPlanModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []MealPlanModel
	err := r.preloaded(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	plans := make([]*mealplan.MealPlan, 0, len(models))
	for i := range models {
		plans = append(plans, ModelToPlan(&models[i]))
	}
	return plans, int(total), nil
}

// MarkDayConfirmed flips an unconfirmed day to confirmed. A day that is already
// confirmed, or was confirmed concurrently, yields ErrDayAlreadyConfirmed.
func (r *MealPlanRepository) MarkDayConfirmed(ctx context.Context, dayID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&MealPlanDayModel{}).
		Where("id = ? AND is_confirmed = ?", dayID, false).
		Update("is_confirmed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return mealplan.ErrDayAlreadyConfirmed
	}
	return nil
}

// MarkPlanConfirmed sets the plan-level confirmation flag
func (r *MealPlanRepository) MarkPlanConfirmed(ctx context.Context, planID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&MealPlanModel{}).
		Where("id = ?", planID).
		Update("is_confirmed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return mealplan.ErrPlanNotFound
	}
	return nil
}

// CommitMeal stores the committed meal and links the slot to it
func (r *MealPlanRepository) CommitMeal(ctx context.Context, mealID uuid.UUID, committed *mealplan.CommittedMeal) error {
	if err := r.db.WithContext(ctx).Create(CommittedMealToModel(committed)).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&MealPlanMealModel{}).
		Where("id = ? AND meal_id IS NULL AND is_skipped = ?", mealID, false).
		Update("meal_id", committed.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return mealplan.ErrMealCommitted
	}
	return nil
}

// MarkMealSkipped sets the skip flag on a slot
func (r *MealPlanRepository) MarkMealSkipped(ctx context.Context, mealID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&MealPlanMealModel{}).
		Where("id = ? AND committed_meal_id IS NULL", mealID).
		Update("is_skipped", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// committed slots are left untouched
	var n int64
	if err := r.db.WithContext(ctx).Model(&MealPlanMealModel{}).Where("id = ?", mealID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return mealplan.ErrMealNotFound
	}
	return nil
}

// DeletePlan removes a plan together with its days and meals
func (r *MealPlanRepository) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dayIDs := tx.Model(&MealPlanDayModel{}).Select("id").Where("meal_plan_id = ?", planID)

		if err := tx.Where("meal_plan_day_id IN (?)", dayIDs).Delete(&MealPlanMealModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meal_plan_id = ?", planID).Delete(&MealPlanDayModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", planID).Delete(&MealPlanModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return mealplan.ErrPlanNotFound
		}
		return nil
	})
}
