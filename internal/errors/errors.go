package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAlreadyBooked        = errors.New("you have already booked this event")
	ErrSoldOut              = errors.New("sorry, this event is sold out")
	ErrNoUpcomingDates      = errors.New("this event has no upcoming dates available for booking")
	ErrPaymentNotConfigured = errors.New("payment system is not configured")
	ErrPaymentUnavailable   = errors.New("payment service is unavailable")
	ErrPaymentFailed        = errors.New("payment verification failed")
)

// NotFoundError carries the resource kind and lookup key
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PaymentError wraps a gateway-facing failure with the message shown to the user
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	return e.Reason
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func (e *PaymentError) Is(target error) bool {
	return target == ErrPaymentFailed
}

// NewPaymentError creates a new PaymentError
func NewPaymentError(reason string, err error) *PaymentError {
	return &PaymentError{Reason: reason, Err: err}
}
