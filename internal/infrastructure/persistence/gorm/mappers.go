package gorm

import (
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/recipe"
)

// PlanToModel converts a plan header to its GORM model (days are written separately)
func PlanToModel(p *mealplan.MealPlan) *MealPlanModel {
	return &MealPlanModel{
		ID:          p.ID(),
		UserID:      p.UserID(),
		StartDate:   p.StartDate(),
		Days:        p.Days(),
		MealsPerDay: p.MealsPerDay(),
		IsConfirmed: p.IsConfirmed(),
		CreatedAt:   p.CreatedAt(),
	}
}

// DayToModel converts a plan day to its GORM model
func DayToModel(d *mealplan.Day) *MealPlanDayModel {
	return &MealPlanDayModel{
		ID:          d.ID(),
		MealPlanID:  d.PlanID(),
		Date:        d.Date(),
		IsConfirmed: d.IsConfirmed(),
	}
}

// MealToModel converts a slot to its GORM model
func MealToModel(m *mealplan.PlannedMeal) *MealPlanMealModel {
	d := m.Draft()
	position := 0
	for i, mt := range mealplan.Vocabulary {
		if mt == m.MealTime() {
			position = i
		}
	}
	return &MealPlanMealModel{
		ID:               m.ID(),
		MealPlanDayID:    m.DayID(),
		MealTime:         string(m.MealTime()),
		Position:         position,
		MealID:           m.CommittedMealID(),
		IsSkipped:        m.IsSkipped(),
		DraftTitle:       d.Title,
		DraftIngredients: StringSlice(d.Ingredients),
		DraftSteps:       StringSlice(d.Steps),
		DraftCuisine:     d.Cuisine,
		DraftCalories:    d.Calories,
		DraftServing:     d.Serving,
		DraftPhoto:       d.Photo,
		DraftSourceID:    d.SourceID,
	}
}

// ModelToPlan rebuilds the plan aggregate from a model with days and meals preloaded
func ModelToPlan(m *MealPlanModel) *mealplan.MealPlan {
	days := make([]*mealplan.Day, 0, len(m.DayList))
	for i := range m.DayList {
		dm := &m.DayList[i]
		meals := make([]*mealplan.PlannedMeal, 0, len(dm.Meals))
		for j := range dm.Meals {
			mm := &dm.Meals[j]
			meals = append(meals, mealplan.RestorePlannedMeal(
				mm.ID,
				mm.MealPlanDayID,
				mealplan.MealTime(mm.MealTime),
				mealplan.Draft{
					Title:       mm.DraftTitle,
					Ingredients: []string(mm.DraftIngredients),
					Steps:       []string(mm.DraftSteps),
					Cuisine:     mm.DraftCuisine,
					Calories:    mm.DraftCalories,
					Serving:     mm.DraftServing,
					Photo:       mm.DraftPhoto,
					SourceID:    mm.DraftSourceID,
				},
				mm.MealID,
				mm.IsSkipped,
			))
		}
		days = append(days, mealplan.RestoreDay(dm.ID, dm.MealPlanID, dm.Date, dm.IsConfirmed, m.MealsPerDay, meals))
	}

	return mealplan.RestoreMealPlan(m.ID, m.UserID, m.StartDate, m.Days, m.MealsPerDay, m.IsConfirmed, m.CreatedAt, days)
}

// CommittedMealToModel converts a committed meal to its GORM model
func CommittedMealToModel(c *mealplan.CommittedMeal) *CommittedMealModel {
	return &CommittedMealModel{
		ID:          c.ID,
		UserID:      c.UserID,
		Date:        c.Date,
		MealTime:    string(c.MealTime),
		Title:       c.Title,
		Ingredients: StringSlice(c.Ingredients),
		Calories:    c.Calories,
		SourceID:    c.SourceID,
		CreatedAt:   c.CreatedAt,
	}
}

// RecipeToModel converts a catalog recipe to its GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	return &RecipeModel{
		ID:          r.ID,
		Title:       r.Title,
		Cuisine:     r.Cuisine,
		MealTime:    r.MealTime,
		Calories:    r.Calories,
		Servings:    r.Servings,
		Minutes:     r.Minutes,
		Ingredients: StringSlice(r.Ingredients),
		Steps:       StringSlice(r.Steps),
		Tags:        StringSlice(r.Tags),
		Photo:       r.Photo,
		SourceID:    r.SourceID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ModelToRecipe converts a GORM model to a catalog recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	return &recipe.Recipe{
		ID:          m.ID,
		Title:       m.Title,
		Cuisine:     m.Cuisine,
		MealTime:    m.MealTime,
		Calories:    m.Calories,
		Servings:    m.Servings,
		Minutes:     m.Minutes,
		Ingredients: []string(m.Ingredients),
		Steps:       []string(m.Steps),
		Tags:        []string(m.Tags),
		Photo:       m.Photo,
		SourceID:    m.SourceID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// PantryItemToModel converts a pantry item to its GORM model
func PantryItemToModel(p *inventory.PantryItem) *PantryItemModel {
	return &PantryItemModel{
		ID:        p.ID,
		UserID:    p.UserID,
		Name:      p.Name,
		Quantity:  p.Quantity,
		Unit:      p.Unit,
		UpdatedAt: p.UpdatedAt,
	}
}

// ModelToPantryItem converts a GORM model to a pantry item
func ModelToPantryItem(m *PantryItemModel) *inventory.PantryItem {
	return &inventory.PantryItem{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		Quantity:  m.Quantity,
		Unit:      m.Unit,
		UpdatedAt: m.UpdatedAt,
	}
}
