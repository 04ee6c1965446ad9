// Package inventory models a user's pantry stock.
package inventory

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrEmptyName       = errors.New("pantry item name is required")
)

// PantryItem is one ingredient a user keeps in stock
type PantryItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Quantity  float64
	Unit      string
	UpdatedAt time.Time
}

// NewPantryItem creates a pantry item with validation
func NewPantryItem(userID uuid.UUID, name string, quantity float64, unit string) (*PantryItem, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &PantryItem{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Quantity:  quantity,
		Unit:      strings.TrimSpace(unit),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// NormalizeName lowercases an ingredient name and collapses whitespace
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Matches reports whether an ingredient line refers to this item
func (p *PantryItem) Matches(ingredientLine string) bool {
	return p.Name != "" && strings.Contains(NormalizeName(ingredientLine), p.Name)
}

// Snapshot is the read-side view of a user's pantry handed to recipe providers
type Snapshot struct {
	UserID uuid.UUID
	Items  []PantryItem
}

// IngredientNames returns normalized names of items that are in stock
func (s Snapshot) IngredientNames() []string {
	names := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		if it.Quantity > 0 {
			names = append(names, it.Name)
		}
	}
	return names
}

// IsEmpty reports whether nothing is in stock
func (s Snapshot) IsEmpty() bool {
	return len(s.IngredientNames()) == 0
}
