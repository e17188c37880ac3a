// Package apperror provides structured error handling for the API.
// All business errors are raised as AppError so the HTTP layer can map
// them to consistent JSON responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Domain rule violations (400)
	CodeInvalidHierarchy        = "INVALID_HIERARCHY"
	CodeOwnershipConflict       = "OWNERSHIP_CONFLICT"
	CodeOwnershipSumMismatch    = "OWNERSHIP_SUM_MISMATCH"
	CodeFloorNotEmpty           = "FLOOR_NOT_EMPTY"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// External collaborators (400/500)
	CodeGateway = "GATEWAY_ERROR"
)

// AppError is the standard error type for the platform.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, conflicting nodes, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, identifier any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": identifier},
	}
}

// NewInvalidHierarchy is returned when a node is created under a parent
// type the hierarchy does not permit.
func NewInvalidHierarchy(childType, parentType string) *AppError {
	return &AppError{
		Code:       CodeInvalidHierarchy,
		Message:    fmt.Sprintf("%s cannot be created under %s", childType, parentType),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"child_type": childType, "parent_type": parentType},
	}
}

// NewOwnershipConflict is returned when an owner assignment collides with
// an existing owner on the node itself, an ancestor, or a descendant.
func NewOwnershipConflict(nodeName, nodeType, ownerName string) *AppError {
	return &AppError{
		Code:       CodeOwnershipConflict,
		Message:    fmt.Sprintf("%s %q is already owned by %s", nodeType, nodeName, ownerName),
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"node_name": nodeName,
			"node_type": nodeType,
			"owner":     ownerName,
		},
	}
}

// NewOwnershipSumMismatch is returned when ownership percentages for one
// property do not add up to 100.
func NewOwnershipSumMismatch(property string, sum string) *AppError {
	return &AppError{
		Code:       CodeOwnershipSumMismatch,
		Message:    fmt.Sprintf("ownership percentages for property %s sum to %s, expected 100", property, sum),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"property": property, "sum": sum},
	}
}

// NewFloorNotEmpty is returned when a floor with units or rooms would be
// removed by a delete or a floor-count shrink.
func NewFloorNotEmpty(floorName string) *AppError {
	return &AppError{
		Code:       CodeFloorNotEmpty,
		Message:    fmt.Sprintf("floor %q still has units or rooms", floorName),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"floor": floorName},
	}
}

// NewInvalidStatusTransition is returned on illegal lifecycle moves.
func NewInvalidStatusTransition(entity, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidStatusTransition,
		Message:    fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"entity": entity, "from": from, "to": to},
	}
}

// NewStateConflict is returned when an operation is rejected by the
// current state of an entity (occupied unit, terminal document, ...).
// Unlike NewConflict these are caller-visible business rules, answered
// with 400.
func NewStateConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, identifier any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": identifier},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewGatewayRejected is returned when the payment gateway answers with a
// non-zero response code (payload rejection, 400).
func NewGatewayRejected(message, responseCode string) *AppError {
	return &AppError{
		Code:       CodeGateway,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"response_code": responseCode},
	}
}

// NewGatewayUnavailable is returned on gateway transport failures (500).
func NewGatewayUnavailable(err error) *AppError {
	return &AppError{
		Code:       CodeGateway,
		Message:    "payment gateway unavailable",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helpers ---

// IsAppError checks if error is AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsConflictCode reports whether the error carries one of the given codes.
func IsConflictCode(err error, codes ...string) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if appErr.Code == c {
			return true
		}
	}
	return false
}
