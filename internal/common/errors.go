// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy of the error carrying extra detail payload.
// A copy, so the package-level sentinels are never mutated by callers.
func (e *APIError) WithDetails(details interface{}) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

var (
	ErrBadRequest         = NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrUnauthorized       = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required and has failed or has not yet been provided.")
	ErrForbidden          = NewAPIError(http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this resource.")
	ErrNotFound           = NewAPIError(http.StatusNotFound, "NOT_FOUND", "The requested resource could not be found.")
	ErrConflict           = NewAPIError(http.StatusConflict, "CONFLICT", "A conflict occurred with the current state of the resource.")
	ErrInternalServer     = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred on the server.")
	ErrServiceUnavailable = NewAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "The server is currently unable to handle the request.")

	// ErrScanInProgress guards the single-scan invariant: only one scan of
	// the docs tree may run at a time.
	ErrScanInProgress = NewAPIError(http.StatusConflict, "SCAN_IN_PROGRESS", "A scan is already running. Wait for it to finish before starting another.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func NewValidationAPIError(details interface{}) *APIError {
	return &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "VALIDATION_ERROR",
		Message:    "Input validation failed.",
		Details:    details,
	}
}

// FormatValidationErrors converts validator.ValidationErrors into a
// field -> message map suitable for API responses.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMap := make(map[string]string)
	for _, e := range errs {
		field := e.Field()
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", strings.ToLower(field))
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s characters long.", strings.ToLower(field), e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s characters.", strings.ToLower(field), e.Param())
		case "oneof":
			message = fmt.Sprintf("The %s field must be one of the following values: %s.", strings.ToLower(field), e.Param())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", field, e.Tag())
		}
		errorMap[field] = message
	}
	return errorMap
}
