package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"go.uber.org/zap"
)

// PantryService is the pantry management side of the inventory service
type PantryService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*inventory.PantryItem, error)
	Restock(ctx context.Context, userID uuid.UUID, name string, quantity float64, unit string) (*inventory.PantryItem, error)
}

// RestockRequest is the body of PUT /api/v1/pantry/items
type RestockRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Quantity *float64 `json:"quantity" validate:"required,min=0"`
	Unit     string   `json:"unit" validate:"max=20"`
}

// PantryItemResponse is the JSON view of a pantry item
type PantryItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PantryHandlers serves the pantry routes
type PantryHandlers struct {
	pantry PantryService
	logger *zap.Logger
}

// NewPantryHandlers creates the pantry handlers
func NewPantryHandlers(pantry PantryService, logger *zap.Logger) *PantryHandlers {
	return &PantryHandlers{pantry: pantry, logger: logger.Named("pantry-handlers")}
}

// List handles GET /api/v1/pantry
func (h *PantryHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.pantry.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]PantryItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toPantryResponse(it))
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{"items": out})
}

// Restock handles PUT /api/v1/pantry/items
func (h *PantryHandlers) Restock(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, h.logger, validationError(err))
		return
	}

	item, err := h.pantry.Restock(r.Context(), userID, req.Name, *req.Quantity, req.Unit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPantryResponse(item))
}

func toPantryResponse(it *inventory.PantryItem) PantryItemResponse {
	return PantryItemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Quantity:  it.Quantity,
		Unit:      it.Unit,
		UpdatedAt: it.UpdatedAt,
	}
}
