// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/task"
)

// MealPlanningService defines the plan generation and lookup use cases
type MealPlanningService interface {
	Generate(ctx context.Context, cmd GenerateCommand) (*GenerateResult, error)
	GetPlan(ctx context.Context, userID, planID uuid.UUID) (*MealPlanDTO, error)
	ListPlans(ctx context.Context, userID uuid.UUID, offset, limit int) (*MealPlanList, error)
	DeletePlan(ctx context.Context, userID, planID uuid.UUID) error
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Status, error)
}

// ConfirmationService commits or skips draft data
type ConfirmationService interface {
	ConfirmDay(ctx context.Context, userID, dayID uuid.UUID) (*ConfirmResult, error)
	SkipMeal(ctx context.Context, userID, mealID uuid.UUID) error
}

// GenerateCommand is one generation request. StartDate is YYYY-MM-DD or empty for today.
type GenerateCommand struct {
	UserID      uuid.UUID
	StartDate   string
	Days        int
	MealsPerDay int
	UseFallback bool
	Async       bool
}

// GenerateResult carries either the built plan summary or the queued task handle
type GenerateResult struct {
	Queued         bool
	Task           *task.Handle
	PlanID         uuid.UUID
	StartDate      time.Time
	Days           int
	MealsRequested int
	MealsCreated   int
	HaltedAt       *mealplan.Slot
}

// ConfirmResult reports what a day confirmation committed
type ConfirmResult struct {
	DayID          uuid.UUID
	PlanConfirmed  bool
	MealsCommitted int
	Shortfalls     []string
}

// MealPlanDTO is the nested plan view
type MealPlanDTO struct {
	ID          uuid.UUID `json:"id"`
	StartDate   string    `json:"start_date"`
	Days        int       `json:"days"`
	MealsPerDay int       `json:"meals_per_day"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at"`
	DayList     []DayDTO  `json:"days_plan"`
}

// DayDTO is one day of the plan view
type DayDTO struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	IsConfirmed bool      `json:"is_confirmed"`
	Meals       []MealDTO `json:"meals"`
}

// MealDTO is one slot of the plan view
type MealDTO struct {
	ID              uuid.UUID      `json:"id"`
	MealTime        string         `json:"meal_time"`
	State           string         `json:"state"`
	IsSkipped       bool           `json:"is_skipped"`
	CommittedMealID *uuid.UUID     `json:"meal,omitempty"`
	Draft           mealplan.Draft `json:"draft"`
}

// MealPlanList is a page of plans
type MealPlanList struct {
	Plans []MealPlanDTO `json:"plans"`
	Total int           `json:"total"`
}
