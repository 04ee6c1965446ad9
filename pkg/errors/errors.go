// Package errors provides structured error handling for the application
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

// Error codes surfaced by the meal planning core
const (
	// Client errors (4xx)
	CodeBadRequest             ErrorCode = "BAD_REQUEST"
	CodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	CodeValidation             ErrorCode = "VALIDATION_ERROR"
	CodeInsufficientCandidates ErrorCode = "INSUFFICIENT_CANDIDATES"
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeOwnershipMismatch      ErrorCode = "OWNERSHIP_MISMATCH"
	CodeInsufficientStock      ErrorCode = "INSUFFICIENT_STOCK"

	// Server errors (5xx)
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
	CodePersistence       ErrorCode = "PERSISTENCE_FAILURE"
	CodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
)

// AppError carries a code, a caller-facing message and an optional cause
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidation, CodeInsufficientCandidates:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeOwnershipMismatch:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInsufficientStock:
		return http.StatusConflict
	case CodeSourceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error. The message is what callers see.
func NewValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, "")
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewAppError(CodeUnauthorized, message, "")
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewOwnershipMismatchError reports an entity that exists but belongs to another user
func NewOwnershipMismatchError(resource string) *AppError {
	return NewAppError(
		CodeOwnershipMismatch,
		"Access forbidden",
		fmt.Sprintf("%s belongs to another user", resource),
	).WithMetadata("resource", resource)
}

// NewInsufficientCandidatesError creates an insufficient candidates error
func NewInsufficientCandidatesError(available, mealsPerDay int) *AppError {
	return NewAppError(
		CodeInsufficientCandidates,
		"Not enough recipes to create even one complete day",
		fmt.Sprintf("%d candidates for %d meals per day", available, mealsPerDay),
	).WithMetadata("available", available).WithMetadata("meals_per_day", mealsPerDay)
}

// NewInsufficientStockError creates an insufficient stock error
func NewInsufficientStockError(ingredient string) *AppError {
	return NewAppError(
		CodeInsufficientStock,
		"Insufficient stock",
		fmt.Sprintf("No %s left in pantry", ingredient),
	).WithMetadata("ingredient", ingredient)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewPersistenceError creates a persistence failure error
func NewPersistenceError(operation string, cause error) *AppError {
	return NewAppError(
		CodePersistence,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewSourceUnavailableError creates an error for a recipe source that could not be read
func NewSourceUnavailableError(source string, cause error) *AppError {
	return NewAppError(
		CodeSourceUnavailable,
		"Recipe source unavailable",
		fmt.Sprintf("Failed to fetch from %s", source),
	).WithCause(cause).WithMetadata("source", source)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates a validation error from field errors
func NewValidationErrors(errs []ValidationError) *AppError {
	validationErrs := ValidationErrors(errs)

	return NewAppError(
		CodeValidation,
		validationErrs.Error(),
		"",
	).WithMetadata("validation_errors", validationErrs)
}
