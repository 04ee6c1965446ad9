package mealplan

import "errors"

// Domain errors for meal plan operations

var (
	// Shape validation errors
	ErrInvalidDays        = errors.New("days must be greater than 0")
	ErrInvalidMealsPerDay = errors.New("meals_per_day must be between 1 and 4")
	ErrInvalidStartDate   = errors.New("invalid start_date, use YYYY-MM-DD")
	ErrInvalidMealTime    = errors.New("meal time is not part of the vocabulary")
	ErrSlotOutOfOrder     = errors.New("meal times must follow vocabulary order")
	ErrDayFull            = errors.New("day already holds every requested meal time")

	// State transition errors
	ErrDayAlreadyConfirmed = errors.New("day is already confirmed")
	ErrNoFilledMeals       = errors.New("day has no meals to confirm")
	ErrPlanConfirmed       = errors.New("cannot delete confirmed plan")
	ErrMealSkipped         = errors.New("meal is skipped")
	ErrMealCommitted       = errors.New("meal is already committed")

	// Lookup errors
	ErrPlanNotFound = errors.New("meal plan not found")
	ErrDayNotFound  = errors.New("day not found")
	ErrMealNotFound = errors.New("meal not found")
	ErrNotOwner     = errors.New("meal plan belongs to another user")
)
