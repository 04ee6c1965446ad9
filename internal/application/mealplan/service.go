// Package mealplan provides the application layer for meal plan generation,
// confirmation and background dispatch
package mealplan

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/inbound"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/greenbite/mealplanner/internal/application/mealplan")

// Enqueuer hands a job to background execution
type Enqueuer interface {
	Enqueue(ctx context.Context, job task.GenerateJob) (*task.Handle, error)
}

// Providers is the provider list for one service. Primary providers always run,
// in order; Fallback is appended only when a request opts in.
type Providers struct {
	Primary  []outbound.RecipeProvider
	Fallback outbound.RecipeProvider
}

// PlanningService implements the meal plan use cases
type PlanningService struct {
	repo      outbound.MealPlanRepository
	inventory outbound.InventoryService
	providers Providers
	builder   *Builder
	enqueuer  Enqueuer
	tasks     outbound.TaskStore
	metrics   outbound.PlanMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewPlanningService creates a new planning service
func NewPlanningService(
	repo outbound.MealPlanRepository,
	inventorySvc outbound.InventoryService,
	providers Providers,
	builder *Builder,
	enqueuer Enqueuer,
	tasks outbound.TaskStore,
	metrics outbound.PlanMetrics,
	logger *zap.Logger,
) *PlanningService {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &PlanningService{
		repo:      repo,
		inventory: inventorySvc,
		providers: providers,
		builder:   builder,
		enqueuer:  enqueuer,
		tasks:     tasks,
		metrics:   metrics,
		logger:    logger.Named("mealplan-service"),
		now:       time.Now,
	}
}

var _ inbound.MealPlanningService = (*PlanningService)(nil)

// Generate validates the request and either builds the plan now or queues it
func (s *PlanningService) Generate(ctx context.Context, cmd inbound.GenerateCommand) (*inbound.GenerateResult, error) {
	start, err := s.validate(cmd.Days, cmd.MealsPerDay, cmd.StartDate)
	if err != nil {
		return nil, err
	}

	if cmd.Async {
		if s.enqueuer == nil {
			return nil, errors.NewInternalError("background generation is not available")
		}
		handle, err := s.enqueuer.Enqueue(ctx, task.GenerateJob{
			TaskID:      uuid.New(),
			UserID:      cmd.UserID,
			StartDate:   start.Format(mealplan.DateLayout),
			Days:        cmd.Days,
			MealsPerDay: cmd.MealsPerDay,
			UseFallback: cmd.UseFallback,
		})
		if err != nil {
			return nil, err
		}
		return &inbound.GenerateResult{
			Queued:    true,
			Task:      handle,
			StartDate: start,
			Days:      cmd.Days,
		}, nil
	}

	res, err := s.run(ctx, cmd.UserID, start, cmd.Days, cmd.MealsPerDay, cmd.UseFallback)
	if err != nil {
		return nil, err
	}

	return &inbound.GenerateResult{
		PlanID:         res.Plan.ID(),
		StartDate:      res.Plan.StartDate(),
		Days:           res.Plan.Days(),
		MealsRequested: res.Requested,
		MealsCreated:   res.Created,
		HaltedAt:       res.HaltedAt,
	}, nil
}

// RunJob executes a deferred generation job; it is the dispatcher's Runner
func (s *PlanningService) RunJob(ctx context.Context, job task.GenerateJob) (uuid.UUID, error) {
	start, err := s.validate(job.Days, job.MealsPerDay, job.StartDate)
	if err != nil {
		return uuid.Nil, err
	}
	res, err := s.run(ctx, job.UserID, start, job.Days, job.MealsPerDay, job.UseFallback)
	if err != nil {
		return uuid.Nil, err
	}
	return res.Plan.ID(), nil
}

func (s *PlanningService) validate(days, mealsPerDay int, rawDate string) (time.Time, error) {
	if days < 1 {
		return time.Time{}, errors.NewValidationError(mealplan.ErrInvalidDays.Error())
	}
	if mealsPerDay < 1 || mealsPerDay > mealplan.MaxMealsPerDay {
		return time.Time{}, errors.NewValidationError(mealplan.ErrInvalidMealsPerDay.Error())
	}
	if rawDate == "" {
		return mealplan.TruncateToDate(s.now()), nil
	}
	start, err := mealplan.ParseDate(rawDate)
	if err != nil {
		return time.Time{}, errors.NewValidationError(err.Error())
	}
	return start, nil
}

func (s *PlanningService) run(ctx context.Context, userID uuid.UUID, start time.Time, days, mealsPerDay int, useFallback bool) (*BuildResult, error) {
	ctx, span := tracer.Start(ctx, "PlanningService.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID.String()),
		attribute.Int("days", days),
		attribute.Int("meals_per_day", mealsPerDay),
		attribute.Bool("use_fallback", useFallback),
	)

	pantry, err := s.inventory.ForContext(ctx, userID)
	if err != nil {
		s.logger.Warn("Inventory unavailable, continuing without pantry bias",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		pantry = inventory.Snapshot{UserID: userID}
	}

	providers := append([]outbound.RecipeProvider{}, s.providers.Primary...)
	if useFallback && s.providers.Fallback != nil {
		providers = append(providers, s.providers.Fallback)
	}

	chain := NewProviderChain(providers, s.metrics, s.logger)
	candidates := chain.Collect(ctx, pantry, days*mealsPerDay)

	return s.builder.Build(ctx, BuildRequest{
		UserID:      userID,
		StartDate:   start,
		Days:        days,
		MealsPerDay: mealsPerDay,
	}, candidates)
}

// GetPlan returns the nested plan view for its owner
func (s *PlanningService) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*inbound.MealPlanDTO, error) {
	plan, err := s.repo.FindPlan(ctx, planID)
	if err != nil {
		return nil, lookupError(err, "Meal plan")
	}
	if !plan.OwnedBy(userID) {
		return nil, errors.NewOwnershipMismatchError("meal plan")
	}
	dto := ToDTO(plan)
	return &dto, nil
}

// ListPlans returns a page of the user's plans, newest first
func (s *PlanningService) ListPlans(ctx context.Context, userID uuid.UUID, offset, limit int) (*inbound.MealPlanList, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	plans, total, err := s.repo.ListPlans(ctx, userID, offset, limit)
	if err != nil {
		return nil, errors.NewPersistenceError("list meal plans", err)
	}

	out := &inbound.MealPlanList{Plans: make([]inbound.MealPlanDTO, 0, len(plans)), Total: total}
	for _, p := range plans {
		out.Plans = append(out.Plans, ToDTO(p))
	}
	return out, nil
}

// DeletePlan removes an unconfirmed plan with its days and meals
func (s *PlanningService) DeletePlan(ctx context.Context, userID, planID uuid.UUID) error {
	err := s.repo.Transaction(ctx, func(store outbound.MealPlanStore) error {
		plan, err := store.FindPlan(ctx, planID)
		if err != nil {
			return lookupError(err, "Meal plan")
		}
		if !plan.OwnedBy(userID) {
			return errors.NewOwnershipMismatchError("meal plan")
		}
		if err := plan.EnsureDeletable(); err != nil {
			return errors.NewValidationError("Cannot delete confirmed plan")
		}
		if err := store.DeletePlan(ctx, planID); err != nil {
			return errors.NewPersistenceError("delete meal plan", err)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete meal plan")
	}

	s.logger.Info("Deleted meal plan",
		zap.String("plan_id", planID.String()),
		zap.String("user_id", userID.String()),
	)
	return nil
}

// GetTask returns the status of a queued generation for its owner
func (s *PlanningService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Status, error) {
	if s.tasks == nil {
		return nil, errors.NewNotFoundError("Task")
	}
	status, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if stderrors.Is(err, task.ErrTaskNotFound) {
			return nil, errors.NewNotFoundError("Task")
		}
		return nil, errors.NewPersistenceError("load task", err)
	}
	if status.UserID != userID {
		return nil, errors.NewOwnershipMismatchError("task")
	}
	return &status, nil
}

func lookupError(err error, resource string) error {
	switch {
	case stderrors.Is(err, mealplan.ErrPlanNotFound),
		stderrors.Is(err, mealplan.ErrDayNotFound),
		stderrors.Is(err, mealplan.ErrMealNotFound):
		return errors.NewNotFoundError(resource)
	default:
		return errors.NewPersistenceError("load "+resource, err)
	}
}

// ToDTO renders the nested plan view
func ToDTO(plan *mealplan.MealPlan) inbound.MealPlanDTO {
	dto := inbound.MealPlanDTO{
		ID:          plan.ID(),
		StartDate:   plan.StartDate().Format(mealplan.DateLayout),
		Days:        plan.Days(),
		MealsPerDay: plan.MealsPerDay(),
		IsConfirmed: plan.IsConfirmed(),
		CreatedAt:   plan.CreatedAt(),
		DayList:     make([]inbound.DayDTO, 0, len(plan.DayList())),
	}
	for _, d := range plan.DayList() {
		day := inbound.DayDTO{
			ID:          d.ID(),
			Date:        d.Date().Format(mealplan.DateLayout),
			IsConfirmed: d.IsConfirmed(),
			Meals:       make([]inbound.MealDTO, 0, len(d.Meals())),
		}
		for _, m := range d.Meals() {
			day.Meals = append(day.Meals, inbound.MealDTO{
				ID:              m.ID(),
				MealTime:        string(m.MealTime()),
				State:           string(m.State()),
				IsSkipped:       m.IsSkipped(),
				CommittedMealID: m.CommittedMealID(),
				Draft:           m.Draft(),
			})
		}
		dto.DayList = append(dto.DayList, day)
	}
	return dto
}
