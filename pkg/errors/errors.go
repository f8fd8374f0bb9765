package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyReported        = errors.New("already reported")
	ErrConcurrencyConflict    = errors.New("concurrency conflict")
	ErrClassifierUnavailable  = errors.New("classifier unavailable")
	ErrInternal               = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// InvalidStateTransition creates a 409 error for an operation attempted on an
// entity whose current state does not permit it.
func InvalidStateTransition(message string) *AppError {
	return &AppError{
		Code:    "INVALID_STATE_TRANSITION",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrInvalidStateTransition,
	}
}

// SelfReport creates a 409 error for a user reporting their own review.
func SelfReport(reviewID string) *AppError {
	return &AppError{
		Code:    "SELF_REPORT",
		Message: fmt.Sprintf("cannot report own review %s", reviewID),
		Status:  http.StatusConflict,
		Err:     ErrInvalidStateTransition,
	}
}

// AlreadyReported creates a 409 error for a duplicate pending report.
func AlreadyReported(reviewID string) *AppError {
	return &AppError{
		Code:    "ALREADY_REPORTED",
		Message: fmt.Sprintf("a pending report against review %s already exists", reviewID),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyReported,
	}
}

// ConcurrencyConflict creates a 503 error for an exhausted optimistic-retry
// loop. The operation is safe to retry by the caller.
func ConcurrencyConflict(message string) *AppError {
	return &AppError{
		Code:    "CONCURRENCY_CONFLICT",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrConcurrencyConflict,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrAlreadyReported):
		return http.StatusConflict
	case errors.Is(err, ErrConcurrencyConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
