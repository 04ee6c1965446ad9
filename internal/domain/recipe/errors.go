package recipe

import "errors"

// Domain errors for catalog recipes

var (
	ErrTitleTooShort  = errors.New("recipe title must be at least 2 characters")
	ErrTitleTooLong   = errors.New("recipe title must not exceed 255 characters")
	ErrNoIngredients  = errors.New("recipe must have at least one ingredient")
	ErrRecipeNotFound = errors.New("recipe not found")
)
