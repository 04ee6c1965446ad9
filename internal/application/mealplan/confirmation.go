package mealplan

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/ports/inbound"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.uber.org/zap"
)

// ConfirmationService commits draft days and skips draft meals. Confirming a day
// is the only place inventory is consumed.
type ConfirmationService struct {
	repo      outbound.MealPlanRepository
	inventory outbound.InventoryService
	logger    *zap.Logger
}

// NewConfirmationService creates a new confirmation service
func NewConfirmationService(repo outbound.MealPlanRepository, inventorySvc outbound.InventoryService, logger *zap.Logger) *ConfirmationService {
	return &ConfirmationService{
		repo:      repo,
		inventory: inventorySvc,
		logger:    logger.Named("mealplan-confirmation"),
	}
}

var _ inbound.ConfirmationService = (*ConfirmationService)(nil)

// ConfirmDay confirms one day of the caller's plan, committing its non-skipped meals,
// then consumes inventory for each of them
func (s *ConfirmationService) ConfirmDay(ctx context.Context, userID, dayID uuid.UUID) (*inbound.ConfirmResult, error) {
	ctx, span := tracer.Start(ctx, "ConfirmationService.ConfirmDay")
	defer span.End()

	result := &inbound.ConfirmResult{DayID: dayID}
	var confirmed []*mealplan.PlannedMeal

	err := s.repo.Transaction(ctx, func(store outbound.MealPlanStore) error {
		plan, err := store.FindPlanByDay(ctx, dayID)
		if err != nil {
			return lookupError(err, "Day")
		}
		if !plan.OwnedBy(userID) {
			return errors.NewOwnershipMismatchError("day")
		}

		day, ok := plan.Day(dayID)
		if !ok {
			return errors.NewNotFoundError("Day")
		}

		active, err := day.Confirm()
		if err != nil {
			return errors.NewValidationError(err.Error())
		}

		if err := store.MarkDayConfirmed(ctx, dayID); err != nil {
			if stderrors.Is(err, mealplan.ErrDayAlreadyConfirmed) {
				// another confirmation won the race
				return errors.NewNotFoundError("Unconfirmed day")
			}
			return errors.NewPersistenceError("confirm day", err)
		}

		for _, meal := range active {
			if meal.IsCommitted() {
				continue
			}
			committed := mealplan.NewCommittedMeal(userID, day.Date(), meal)
			if err := meal.Commit(committed.ID); err != nil {
				return errors.NewValidationError(err.Error())
			}
			if err := store.CommitMeal(ctx, meal.ID(), committed); err != nil {
				return errors.NewPersistenceError("commit meal", err)
			}
			result.MealsCommitted++
		}

		if plan.RefreshConfirmation() {
			if err := store.MarkPlanConfirmed(ctx, plan.ID()); err != nil {
				return errors.NewPersistenceError("confirm meal plan", err)
			}
			result.PlanConfirmed = true
		}

		confirmed = active
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to confirm day")
	}

	for _, meal := range confirmed {
		if err := s.inventory.Consume(ctx, userID, meal); err != nil {
			if errors.Is(err, errors.CodeInsufficientStock) {
				result.Shortfalls = append(result.Shortfalls, meal.Draft().Title)
				s.logger.Warn("Inventory short for confirmed meal",
					zap.String("meal_id", meal.ID().String()),
					zap.Error(err),
				)
				continue
			}
			s.logger.Error("Failed to consume inventory",
				zap.String("meal_id", meal.ID().String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Confirmed day",
		zap.String("day_id", dayID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("meals_committed", result.MealsCommitted),
		zap.Bool("plan_confirmed", result.PlanConfirmed),
	)

	return result, nil
}

// SkipMeal marks a slot skipped. Skipping an already skipped or committed slot
// succeeds unchanged. When the skip leaves every day settled the plan is confirmed.
func (s *ConfirmationService) SkipMeal(ctx context.Context, userID, mealID uuid.UUID) error {
	planConfirmed := false
	changed := false

	err := s.repo.Transaction(ctx, func(store outbound.MealPlanStore) error {
		plan, err := store.FindPlanByMeal(ctx, mealID)
		if err != nil {
			return lookupError(err, "Meal")
		}
		if !plan.OwnedBy(userID) {
			return errors.NewOwnershipMismatchError("meal")
		}

		meal, _, ok := plan.Meal(mealID)
		if !ok {
			return errors.NewNotFoundError("Meal")
		}
		if !meal.Skip() {
			return nil
		}
		changed = true

		if err := store.MarkMealSkipped(ctx, mealID); err != nil {
			return errors.NewPersistenceError("skip meal", err)
		}

		if plan.RefreshConfirmation() {
			if err := store.MarkPlanConfirmed(ctx, plan.ID()); err != nil {
				return errors.NewPersistenceError("confirm meal plan", err)
			}
			planConfirmed = true
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to skip meal")
	}

	if changed {
		s.logger.Info("Skipped meal",
			zap.String("meal_id", mealID.String()),
			zap.String("user_id", userID.String()),
			zap.Bool("plan_confirmed", planConfirmed),
		)
	}
	return nil
}
