// Package gorm provides GORM model definitions and repositories
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MealPlanModel represents the GORM model for meal plans
type MealPlanModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID `gorm:"type:char(36);index;not null"`
	StartDate   time.Time `gorm:"not null"`
	Days        int       `gorm:"not null"`
	MealsPerDay int       `gorm:"not null"`
	IsConfirmed bool      `gorm:"default:false;not null"`
	CreatedAt   time.Time

	DayList []MealPlanDayModel `gorm:"foreignKey:MealPlanID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name
func (MealPlanModel) TableName() string {
	return "meal_plans"
}

// MealPlanDayModel represents one day of a plan
type MealPlanDayModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	MealPlanID  uuid.UUID `gorm:"type:char(36);index;not null"`
	Date        time.Time `gorm:"index;not null"`
	IsConfirmed bool      `gorm:"default:false;not null"`

	Meals []MealPlanMealModel `gorm:"foreignKey:MealPlanDayID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name
func (MealPlanDayModel) TableName() string {
	return "meal_plan_days"
}

// MealPlanMealModel represents one slot of a day, holding draft fields until committed
type MealPlanMealModel struct {
	ID               uuid.UUID  `gorm:"type:char(36);primaryKey"`
	MealPlanDayID    uuid.UUID  `gorm:"type:char(36);index;uniqueIndex:idx_day_meal_time;not null"`
	MealTime         string     `gorm:"type:varchar(20);uniqueIndex:idx_day_meal_time;not null"`
	Position         int        `gorm:"not null"`
	MealID           *uuid.UUID `gorm:"type:char(36)"`
	IsSkipped        bool       `gorm:"default:false;not null"`
	DraftTitle       string     `gorm:"type:varchar(255)"`
	DraftIngredients StringSlice `gorm:"type:text"`
	DraftSteps       StringSlice `gorm:"type:text"`
	DraftCuisine     string     `gorm:"type:varchar(100)"`
	DraftCalories    string     `gorm:"type:varchar(50)"`
	DraftServing     string     `gorm:"type:varchar(50)"`
	DraftPhoto       string     `gorm:"type:text"`
	DraftSourceID    string     `gorm:"type:varchar(100)"`
}

// TableName specifies the table name
func (MealPlanMealModel) TableName() string {
	return "meal_plan_meals"
}

// CommittedMealModel is the authoritative meal record written on confirmation
type CommittedMealModel struct {
	ID          uuid.UUID   `gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID   `gorm:"type:char(36);index;not null"`
	Date        time.Time   `gorm:"index;not null"`
	MealTime    string      `gorm:"type:varchar(20);not null"`
	Title       string      `gorm:"type:varchar(255);not null"`
	Ingredients StringSlice `gorm:"type:text"`
	Calories    string      `gorm:"type:varchar(50)"`
	SourceID    string      `gorm:"type:varchar(100)"`
	CreatedAt   time.Time
}

// TableName specifies the table name
func (CommittedMealModel) TableName() string {
	return "meals"
}

// RecipeModel represents the GORM model for cataloged recipes
type RecipeModel struct {
	ID          uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Title       string      `gorm:"type:varchar(255);index;not null"`
	Cuisine     string      `gorm:"type:varchar(100);index"`
	MealTime    string      `gorm:"type:varchar(20);index"`
	Calories    int
	Servings    int
	Minutes     int
	Ingredients StringSlice `gorm:"type:text"`
	Steps       StringSlice `gorm:"type:text"`
	Tags        StringSlice `gorm:"type:text"`
	Photo       string      `gorm:"type:text"`
	SourceID    string      `gorm:"type:varchar(100);index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name
func (RecipeModel) TableName() string {
	return "recipes"
}

// PantryItemModel represents one stocked ingredient of a user
type PantryItemModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);uniqueIndex:idx_pantry_user_name;not null"`
	Name      string    `gorm:"type:varchar(120);uniqueIndex:idx_pantry_user_name;not null"`
	Quantity  float64   `gorm:"not null"`
	Unit      string    `gorm:"type:varchar(50)"`
	UpdatedAt time.Time
}

// TableName specifies the table name
func (PantryItemModel) TableName() string {
	return "pantry_items"
}

// AllModels lists every model for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&MealPlanModel{},
		&MealPlanDayModel{},
		&MealPlanMealModel{},
		&CommittedMealModel{},
		&RecipeModel{},
		&PantryItemModel{},
	}
}

// StringSlice custom type for handling string arrays stored as JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
