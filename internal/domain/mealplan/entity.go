// Package mealplan contains the meal plan aggregate: a plan owns its days,
// and each day owns the meal slots allocated to it.
package mealplan

import (
	"time"

	"github.com/google/uuid"
)

// MealPlan is the aggregate root for a user's plan over a date range
type MealPlan struct {
	id          uuid.UUID
	userID      uuid.UUID
	startDate   time.Time
	days        int
	mealsPerDay int
	isConfirmed bool
	createdAt   time.Time

	dayList []*Day
}

// NewMealPlan creates an unconfirmed plan covering days calendar days from startDate
func NewMealPlan(userID uuid.UUID, startDate time.Time, days, mealsPerDay int) (*MealPlan, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	if mealsPerDay < 1 || mealsPerDay > MaxMealsPerDay {
		return nil, ErrInvalidMealsPerDay
	}

	return &MealPlan{
		id:          uuid.New(),
		userID:      userID,
		startDate:   TruncateToDate(startDate),
		days:        days,
		mealsPerDay: mealsPerDay,
		createdAt:   time.Now().UTC(),
	}, nil
}

// RestoreMealPlan rebuilds a plan from persisted state
func RestoreMealPlan(id, userID uuid.UUID, startDate time.Time, days, mealsPerDay int, confirmed bool, createdAt time.Time, dayList []*Day) *MealPlan {
	return &MealPlan{
		id:          id,
		userID:      userID,
		startDate:   TruncateToDate(startDate),
		days:        days,
		mealsPerDay: mealsPerDay,
		isConfirmed: confirmed,
		createdAt:   createdAt,
		dayList:     dayList,
	}
}

func (p *MealPlan) ID() uuid.UUID        { return p.id }
func (p *MealPlan) UserID() uuid.UUID    { return p.userID }
func (p *MealPlan) StartDate() time.Time { return p.startDate }
func (p *MealPlan) Days() int            { return p.days }
func (p *MealPlan) MealsPerDay() int     { return p.mealsPerDay }
func (p *MealPlan) IsConfirmed() bool    { return p.isConfirmed }
func (p *MealPlan) CreatedAt() time.Time { return p.createdAt }
func (p *MealPlan) DayList() []*Day      { return p.dayList }

// OwnedBy reports whether userID owns the plan
func (p *MealPlan) OwnedBy(userID uuid.UUID) bool {
	return p.userID == userID
}

// TotalSlots is days times meals per day
func (p *MealPlan) TotalSlots() int {
	return p.days * p.mealsPerDay
}

// MealCount counts the slot rows that exist across all days
func (p *MealPlan) MealCount() int {
	n := 0
	for _, d := range p.dayList {
		n += len(d.meals)
	}
	return n
}

// AddDay appends the day at start_date + offset. Days must be added in order.
func (p *MealPlan) AddDay(offset int) (*Day, error) {
	if offset != len(p.dayList) || offset >= p.days {
		return nil, ErrInvalidDays
	}
	day := &Day{
		id:          uuid.New(),
		planID:      p.id,
		date:        p.startDate.AddDate(0, 0, offset),
		mealsPerDay: p.mealsPerDay,
	}
	p.dayList = append(p.dayList, day)
	return day, nil
}

// Day returns the day with the given id
func (p *MealPlan) Day(id uuid.UUID) (*Day, bool) {
	for _, d := range p.dayList {
		if d.id == id {
			return d, true
		}
	}
	return nil, false
}

// Meal returns the slot with the given id and the day holding it
func (p *MealPlan) Meal(id uuid.UUID) (*PlannedMeal, *Day, bool) {
	for _, d := range p.dayList {
		for _, m := range d.meals {
			if m.id == id {
				return m, d, true
			}
		}
	}
	return nil, nil, false
}

// RefreshConfirmation marks the plan confirmed once every day is settled and at
// least one of them was confirmed. It reports whether the plan changed.
func (p *MealPlan) RefreshConfirmation() bool {
	if p.isConfirmed {
		return false
	}
	confirmed := 0
	for _, d := range p.dayList {
		if !d.IsSettled() {
			return false
		}
		if d.isConfirmed {
			confirmed++
		}
	}
	if confirmed == 0 {
		return false
	}
	p.isConfirmed = true
	return true
}

// EnsureDeletable rejects deletion of a confirmed plan
func (p *MealPlan) EnsureDeletable() error {
	if p.isConfirmed {
		return ErrPlanConfirmed
	}
	return nil
}

// Day is one calendar date of a plan
type Day struct {
	id          uuid.UUID
	planID      uuid.UUID
	date        time.Time
	isConfirmed bool
	mealsPerDay int

	meals []*PlannedMeal
}

// RestoreDay rebuilds a day from persisted state
func RestoreDay(id, planID uuid.UUID, date time.Time, confirmed bool, mealsPerDay int, meals []*PlannedMeal) *Day {
	return &Day{
		id:          id,
		planID:      planID,
		date:        TruncateToDate(date),
		isConfirmed: confirmed,
		mealsPerDay: mealsPerDay,
		meals:       meals,
	}
}

func (d *Day) ID() uuid.UUID          { return d.id }
func (d *Day) PlanID() uuid.UUID      { return d.planID }
func (d *Day) Date() time.Time        { return d.date }
func (d *Day) IsConfirmed() bool      { return d.isConfirmed }
func (d *Day) Meals() []*PlannedMeal { return d.meals }

// AddMeal fills the next slot with a draft. Slots form a prefix of the vocabulary.
func (d *Day) AddMeal(mealTime MealTime, draft Draft) (*PlannedMeal, error) {
	idx := mealTime.index()
	if idx < 0 {
		return nil, ErrInvalidMealTime
	}
	if len(d.meals) >= d.mealsPerDay || idx >= d.mealsPerDay {
		return nil, ErrDayFull
	}
	if idx != len(d.meals) {
		return nil, ErrSlotOutOfOrder
	}

	meal := &PlannedMeal{
		id:       uuid.New(),
		dayID:    d.id,
		mealTime: mealTime,
		draft:    draft,
	}
	d.meals = append(d.meals, meal)
	return meal, nil
}

// activeMeals returns every non-skipped slot holding a recipe
func (d *Day) activeMeals() []*PlannedMeal {
	var active []*PlannedMeal
	for _, m := range d.meals {
		if m.isSkipped {
			continue
		}
		if m.IsCommitted() || !m.draft.IsEmpty() {
			active = append(active, m)
		}
	}
	return active
}

// IsSettled reports whether the day needs no further confirmation: it is
// confirmed, or it has no filled slot left to confirm (empty after exhaustion,
// or every meal skipped).
func (d *Day) IsSettled() bool {
	return d.isConfirmed || len(d.activeMeals()) == 0
}

// Confirm transitions the day to confirmed and returns the meals that now
// become authoritative: every non-skipped slot holding a recipe.
func (d *Day) Confirm() ([]*PlannedMeal, error) {
	if d.isConfirmed {
		return nil, ErrDayAlreadyConfirmed
	}

	active := d.activeMeals()
	if len(active) == 0 {
		return nil, ErrNoFilledMeals
	}

	d.isConfirmed = true
	return active, nil
}

// PlannedMeal is one filled slot of a day
type PlannedMeal struct {
	id              uuid.UUID
	dayID           uuid.UUID
	mealTime        MealTime
	draft           Draft
	committedMealID *uuid.UUID
	isSkipped       bool
}

// RestorePlannedMeal rebuilds a slot from persisted state
func RestorePlannedMeal(id, dayID uuid.UUID, mealTime MealTime, draft Draft, committedMealID *uuid.UUID, skipped bool) *PlannedMeal {
	return &PlannedMeal{
		id:              id,
		dayID:           dayID,
		mealTime:        mealTime,
		draft:           draft,
		committedMealID: committedMealID,
		isSkipped:       skipped,
	}
}

func (m *PlannedMeal) ID() uuid.UUID               { return m.id }
func (m *PlannedMeal) DayID() uuid.UUID            { return m.dayID }
func (m *PlannedMeal) MealTime() MealTime          { return m.mealTime }
func (m *PlannedMeal) Draft() Draft                { return m.draft }
func (m *PlannedMeal) CommittedMealID() *uuid.UUID { return m.committedMealID }
func (m *PlannedMeal) IsSkipped() bool             { return m.isSkipped }

// IsCommitted reports whether the slot references a committed meal
func (m *PlannedMeal) IsCommitted() bool {
	return m.committedMealID != nil
}

// State returns the lifecycle position of the slot
func (m *PlannedMeal) State() MealState {
	switch {
	case m.isSkipped:
		return MealStateSkipped
	case m.IsCommitted():
		return MealStateCommitted
	default:
		return MealStateDraft
	}
}

// Skip marks the slot skipped. Skipping twice, or skipping a committed slot, is a
// no-op; it reports whether anything changed.
func (m *PlannedMeal) Skip() bool {
	if m.isSkipped || m.IsCommitted() {
		return false
	}
	m.isSkipped = true
	return true
}

// Commit links the slot to a committed meal
func (m *PlannedMeal) Commit(mealID uuid.UUID) error {
	if m.isSkipped {
		return ErrMealSkipped
	}
	if m.committedMealID != nil {
		return ErrMealCommitted
	}
	m.committedMealID = &mealID
	return nil
}

// CommittedMeal is the authoritative record created when a day is confirmed
type CommittedMeal struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	MealTime    MealTime
	Title       string
	Ingredients []string
	Calories    string
	SourceID    string
	CreatedAt   time.Time
}

// NewCommittedMeal builds the committed record for a confirmed slot
func NewCommittedMeal(userID uuid.UUID, date time.Time, meal *PlannedMeal) *CommittedMeal {
	d := meal.Draft()
	return &CommittedMeal{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        TruncateToDate(date),
		MealTime:    meal.MealTime(),
		Title:       d.Title,
		Ingredients: d.Ingredients,
		Calories:    d.Calories,
		SourceID:    d.SourceID,
		CreatedAt:   time.Now().UTC(),
	}
}
