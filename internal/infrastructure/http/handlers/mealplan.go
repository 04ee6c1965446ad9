package handlers

import (
	"net/http"

	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/infrastructure/config"
	"github.com/greenbite/mealplanner/internal/ports/inbound"
	"go.uber.org/zap"
)

// GenerateRequest is the body of POST /generate. Absent fields take configured defaults.
type GenerateRequest struct {
	Days          *int    `json:"days" validate:"omitempty,min=1"`
	MealsPerDay   *int    `json:"meals_per_day" validate:"omitempty,min=1,max=4"`
	UseAIFallback *bool   `json:"use_ai_fallback"`
	Async         bool    `json:"async"`
	StartDate     *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// MealPlanHandlers serves the meal plan routes
type MealPlanHandlers struct {
	planning     inbound.MealPlanningService
	confirmation inbound.ConfirmationService
	defaults     config.PlanningConfig
	logger       *zap.Logger
}

// NewMealPlanHandlers creates the meal plan handlers
func NewMealPlanHandlers(
	planning inbound.MealPlanningService,
	confirmation inbound.ConfirmationService,
	defaults config.PlanningConfig,
	logger *zap.Logger,
) *MealPlanHandlers {
	return &MealPlanHandlers{
		planning:     planning,
		confirmation: confirmation,
		defaults:     defaults,
		logger:       logger.Named("mealplan-handlers"),
	}
}

// Generate handles POST /api/v1/meal-plans/generate
func (h *MealPlanHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, h.logger, validationError(err))
		return
	}

	cmd := h.command(req)
	cmd.UserID = userID

	result, err := h.planning.Generate(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if result.Queued {
		writeJSON(w, h.logger, http.StatusAccepted, map[string]interface{}{
			"status":  "queued",
			"task_id": result.Task.TaskID,
			"message": "Meal plan generation queued",
		})
		return
	}

	body := map[string]interface{}{
		"meal_plan_id":    result.PlanID,
		"days":            result.Days,
		"start_date":      result.StartDate.Format(mealplan.DateLayout),
		"meals_created":   result.MealsCreated,
		"meals_requested": result.MealsRequested,
	}
	if result.HaltedAt != nil {
		body["halted_at"] = result.HaltedAt
	}
	writeJSON(w, h.logger, http.StatusCreated, body)
}

func (h *MealPlanHandlers) command(req GenerateRequest) inbound.GenerateCommand {
	cmd := inbound.GenerateCommand{
		Days:        h.defaults.DefaultDays,
		MealsPerDay: h.defaults.DefaultMealsPerDay,
		UseFallback: h.defaults.DefaultUseFallback,
		Async:       req.Async,
	}
	if req.Days != nil {
		cmd.Days = *req.Days
	}
	if req.MealsPerDay != nil {
		cmd.MealsPerDay = *req.MealsPerDay
	}
	if req.UseAIFallback != nil {
		cmd.UseFallback = *req.UseAIFallback
	}
	if req.StartDate != nil {
		cmd.StartDate = *req.StartDate
	}
	return cmd
}

// List handles GET /api/v1/meal-plans
func (h *MealPlanHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.planning.ListPlans(r.Context(), userID, queryInt(r, "offset", 0), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, list)
}

// Get handles GET /api/v1/meal-plans/{id}
func (h *MealPlanHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	planID, err := pathID(r, "id", "Meal plan")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	plan, err := h.planning.GetPlan(r.Context(), userID, planID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, plan)
}

// Delete handles DELETE /api/v1/meal-plans/{id}
func (h *MealPlanHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	planID, err := pathID(r, "id", "Meal plan")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.planning.DeletePlan(r.Context(), userID, planID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmDay handles POST /api/v1/meal-plans/days/{id}/confirm
func (h *MealPlanHandlers) ConfirmDay(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	dayID, err := pathID(r, "id", "Day")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.confirmation.ConfirmDay(r.Context(), userID, dayID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	body := map[string]interface{}{
		"status":          "Day confirmed",
		"meals_committed": result.MealsCommitted,
		"plan_confirmed":  result.PlanConfirmed,
	}
	if len(result.Shortfalls) > 0 {
		body["shortfalls"] = result.Shortfalls
	}
	writeJSON(w, h.logger, http.StatusOK, body)
}

// SkipMeal handles POST /api/v1/meal-plans/meals/{id}/skip
func (h *MealPlanHandlers) SkipMeal(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mealID, err := pathID(r, "id", "Meal")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.confirmation.SkipMeal(r.Context(), userID, mealID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "Meal skipped"})
}

// GetTask handles GET /api/v1/meal-plans/tasks/{id}
func (h *MealPlanHandlers) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	taskID, err := pathID(r, "id", "Task")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	status, err := h.planning.GetTask(r.Context(), userID, taskID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, status)
}
