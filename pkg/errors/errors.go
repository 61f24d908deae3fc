package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeUnauthorized       ErrorType = "unauthorized"
	ErrorTypeForbidden          ErrorType = "forbidden"
	ErrorTypePreconditionFailed ErrorType = "precondition_failed"
	ErrorTypeTimerExpired       ErrorType = "timer_expired"
	ErrorTypeInsufficientFunds  ErrorType = "insufficient_funds"
	ErrorTypeRosterFull         ErrorType = "roster_full"
	ErrorTypeBusy               ErrorType = "busy"
	ErrorTypeInternal           ErrorType = "internal"
)

// AppError represents an application error with context
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewPreconditionError creates an error for operations attempted in the
// wrong auction state
func NewPreconditionError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypePreconditionFailed,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewTimerExpiredError creates an error for bids placed after the deadline
func NewTimerExpiredError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeTimerExpired,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInsufficientFundsError creates an error for bids exceeding the purse
func NewInsufficientFundsError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInsufficientFunds,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewRosterFullError creates an error for bids by franchises at the roster cap
func NewRosterFullError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRosterFull,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewBusyError creates an error for requests rejected because the
// serializer could not be acquired in time
func NewBusyError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusy,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithInternal adds an internal error
func (e *AppError) WithInternal(err error) *AppError {
	e.Internal = err
	return e
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
