// Package apperror defines the error taxonomy shared by services and handlers.
// Every business failure that should reach a client is an *AppError carrying
// a machine code, the HTTP status to answer with and, when the failure is
// tied to one request field, the field name.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeEmptyItemList   = "EMPTY_ITEM_LIST"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeInvalidDiscount = "INVALID_DISCOUNT"
	CodeInvalidPrice    = "INVALID_PRICE"

	// Business rule violations (400, surfaced on the offending field)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeMedicineNotFound  = "MEDICINE_NOT_FOUND"

	// Lock wait, deadlock or serialization failure in the store (409, retryable)
	CodeConcurrency = "CONCURRENCY_ERROR"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// ItemsField is the request field sale line item errors are reported on.
const ItemsField = "input_items"

// AppError is the standard error type for the API.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Field names the request field the error belongs to, if any
	Field string `json:"field,omitempty"`

	// Details contains additional context (quantities, ids, indexes)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithField attaches the error to a request field
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *AppError) Retryable() bool {
	return e.Code == CodeConcurrency
}

// --- Factory functions ---

// NewValidation creates a validation error (400) on a request field
func NewValidation(field, message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewEmptyItemList is returned when a sale carries no line items
func NewEmptyItemList() *AppError {
	return &AppError{
		Code:       CodeEmptyItemList,
		Message:    "At least one item is required.",
		Field:      ItemsField,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidQuantity is returned for a line item with quantity <= 0
func NewInvalidQuantity(index, quantity int) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    fmt.Sprintf("Item %d: quantity must be greater than zero.", index),
		Field:      ItemsField,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"index": index, "quantity": quantity},
	}
}

// NewInvalidPrice is returned for a negative or over-precise line item price
func NewInvalidPrice(index int, price string) *AppError {
	return &AppError{
		Code:       CodeInvalidPrice,
		Message:    fmt.Sprintf("Item %d: price must be a non-negative amount with at most 2 decimal places.", index),
		Field:      ItemsField,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"index": index, "price": price},
	}
}

// NewInvalidDiscount is returned for a discount outside [0, 100]
func NewInvalidDiscount(value string) *AppError {
	return &AppError{
		Code:       CodeInvalidDiscount,
		Message:    "Discount percentage must be between 0 and 100 with at most 2 decimal places.",
		Field:      "discount_percentage",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"discount_percentage": value},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewMedicineNotFound is returned when a referenced medicine id does not resolve
func NewMedicineNotFound(id any) *AppError {
	return &AppError{
		Code:       CodeMedicineNotFound,
		Message:    fmt.Sprintf("Medicine %v does not exist.", id),
		Field:      ItemsField,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"medicine_id": id},
	}
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(medicine string, available, requested int) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("Insufficient stock for %s. Available: %d, requested: %d.", medicine, available, requested),
		Field:      ItemsField,
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"medicine":  medicine,
			"available": available,
			"requested": requested,
		},
	}
}

// NewConcurrency wraps a lock timeout or serialization failure from the store
func NewConcurrency(err error) *AppError {
	return &AppError{
		Code:       CodeConcurrency,
		Message:    "The record is busy. Please retry.",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helpers ---

// As extracts an *AppError from the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HTTPStatus returns the status to answer err with.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
