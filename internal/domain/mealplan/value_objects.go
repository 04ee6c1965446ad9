package mealplan

import (
	"strings"
	"time"
)

// MealTime labels a slot within a day
type MealTime string

const (
	MealTimeBreakfast MealTime = "breakfast"
	MealTimeLunch     MealTime = "lunch"
	MealTimeDinner    MealTime = "dinner"
	MealTimeSnack     MealTime = "snack"
)

// Vocabulary is the ordered, fixed set of meal times a day can hold
var Vocabulary = []MealTime{MealTimeBreakfast, MealTimeLunch, MealTimeDinner, MealTimeSnack}

// MaxMealsPerDay is the largest number of slots a day can carry
var MaxMealsPerDay = len(Vocabulary)

// MealTimesFor returns the vocabulary prefix for the given slot count
func MealTimesFor(mealsPerDay int) ([]MealTime, error) {
	if mealsPerDay < 1 || mealsPerDay > MaxMealsPerDay {
		return nil, ErrInvalidMealsPerDay
	}
	out := make([]MealTime, mealsPerDay)
	copy(out, Vocabulary[:mealsPerDay])
	return out, nil
}

func (m MealTime) index() int {
	for i, v := range Vocabulary {
		if v == m {
			return i
		}
	}
	return -1
}

// IsValid reports whether m belongs to the vocabulary
func (m MealTime) IsValid() bool {
	return m.index() >= 0
}

// Slot identifies one meal time position inside a plan
type Slot struct {
	DayNumber int      `json:"day"`
	MealTime  MealTime `json:"meal_time"`
}

// Draft holds the recipe data copied onto a slot before it is committed
type Draft struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Cuisine     string   `json:"cuisine"`
	Calories    string   `json:"calories"`
	Serving     string   `json:"serving"`
	Photo       string   `json:"photo"`
	SourceID    string   `json:"source_id"`
}

// IsEmpty reports whether the draft carries no recipe at all
func (d Draft) IsEmpty() bool {
	return strings.TrimSpace(d.Title) == "" && len(d.Ingredients) == 0 && len(d.Steps) == 0
}

// MealState is the lifecycle position of a persisted slot
type MealState string

const (
	MealStateDraft     MealState = "draft"
	MealStateCommitted MealState = "committed"
	MealStateSkipped   MealState = "skipped"
)

// DateLayout is the calendar date format accepted from callers
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date in UTC
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidStartDate
	}
	return t, nil
}

// TruncateToDate drops the clock part of t, keeping its calendar date
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
