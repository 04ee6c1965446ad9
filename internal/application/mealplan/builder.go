package mealplan

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BuildRequest is the target shape of a plan
type BuildRequest struct {
	UserID      uuid.UUID
	StartDate   time.Time
	Days        int
	MealsPerDay int
}

// BuildResult reports what the builder created next to what was requested
type BuildResult struct {
	Plan             *mealplan.MealPlan
	Requested        int
	Created          int
	Unfilled         int
	CandidatesUnused int
	// HaltedAt is the first slot left unfilled, nil when the plan is complete
	HaltedAt *mealplan.Slot
}

// Builder allocates candidates into days and slots and persists the plan atomically
type Builder struct {
	repo    outbound.MealPlanRepository
	metrics outbound.PlanMetrics
	logger  *zap.Logger
}

// NewBuilder creates a new meal plan builder
func NewBuilder(repo outbound.MealPlanRepository, metrics outbound.PlanMetrics, logger *zap.Logger) *Builder {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Builder{
		repo:    repo,
		metrics: metrics,
		logger:  logger.Named("mealplan-builder"),
	}
}

// Build creates the plan, one day per offset, filling slots in vocabulary order from a
// single candidate cursor. When the cursor runs out, slot creation stops for the rest
// of the plan: remaining days are still created but receive no meals. Either every row
// commits or none does.
func (b *Builder) Build(ctx context.Context, req BuildRequest, candidates []mealplan.RecipeCandidate) (*BuildResult, error) {
	ctx, span := tracer.Start(ctx, "Builder.Build")
	defer span.End()

	mealTimes, err := mealplan.MealTimesFor(req.MealsPerDay)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if req.Days < 1 {
		return nil, errors.NewValidationError(mealplan.ErrInvalidDays.Error())
	}

	total := req.Days * req.MealsPerDay
	if len(candidates) < total {
		b.logger.Warn("Not enough recipes, building partial plan",
			zap.Int("candidates", len(candidates)),
			zap.Int("needed", total),
		)
	}

	result := &BuildResult{Requested: total}

	err = b.repo.Transaction(ctx, func(store outbound.MealPlanStore) error {
		plan, err := mealplan.NewMealPlan(req.UserID, req.StartDate, req.Days, req.MealsPerDay)
		if err != nil {
			return err
		}
		if err := store.CreatePlan(ctx, plan); err != nil {
			return err
		}

		cursor := 0
		for offset := 0; offset < req.Days; offset++ {
			day, err := plan.AddDay(offset)
			if err != nil {
				return err
			}
			if err := store.CreateDay(ctx, day); err != nil {
				return err
			}

			for _, mt := range mealTimes {
				if result.HaltedAt != nil {
					break
				}
				if cursor >= len(candidates) {
					result.HaltedAt = &mealplan.Slot{DayNumber: offset + 1, MealTime: mt}
					b.logger.Warn("Ran out of recipes",
						zap.Int("day", offset+1),
						zap.String("meal_time", string(mt)),
						zap.Int("meals_created", cursor),
					)
					break
				}

				meal, err := day.AddMeal(mt, candidates[cursor].Draft())
				if err != nil {
					return err
				}
				if err := store.CreateMeal(ctx, meal); err != nil {
					return err
				}
				cursor++
			}
		}

		result.Plan = plan
		result.Created = cursor
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		b.logger.Error("Meal plan build rolled back", zap.Error(err))
		return nil, errors.NewPersistenceError("build meal plan", err)
	}

	result.Unfilled = total - result.Created
	result.CandidatesUnused = len(candidates) - result.Created
	b.metrics.PlanBuilt(total, result.Created)

	span.SetAttributes(
		attribute.String("plan_id", result.Plan.ID().String()),
		attribute.Int("meals_created", result.Created),
	)
	b.logger.Info("Built meal plan",
		zap.String("plan_id", result.Plan.ID().String()),
		zap.String("user_id", req.UserID.String()),
		zap.Int("meals_created", result.Created),
		zap.Int("days", req.Days),
	)

	return result, nil
}

// BuildPartial builds only complete days: len(candidates) / meals_per_day of them,
// whatever day count was requested. It fails when not even one day can be filled.
func (b *Builder) BuildPartial(ctx context.Context, req BuildRequest, candidates []mealplan.RecipeCandidate) (*BuildResult, error) {
	if _, err := mealplan.MealTimesFor(req.MealsPerDay); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	completeDays := len(candidates) / req.MealsPerDay
	if completeDays == 0 {
		return nil, errors.NewInsufficientCandidatesError(len(candidates), req.MealsPerDay)
	}

	b.logger.Info("Building partial plan",
		zap.Int("complete_days", completeDays),
		zap.Int("requested_days", req.Days),
		zap.Int("candidates", len(candidates)),
	)

	req.Days = completeDays
	return b.Build(ctx, req, candidates)
}
