package model

import (
	"errors"
	"fmt"
)

// ValidationError marks bad input shape. It is surfaced to the caller
// immediately and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrAvailabilityNotFound is returned when the slot no longer exists.
	ErrAvailabilityNotFound = errors.New("availability not found")

	// ErrAlreadyReserved is returned when the slot was reserved at write
	// time. The losing side of a reserve race always gets this error.
	ErrAlreadyReserved = errors.New("availability already reserved")

	// ErrNotReserved is returned when cancelling a slot that is open.
	ErrNotReserved = errors.New("availability is not reserved")

	// ErrAlreadyRequested is returned when the student already holds a
	// reservation for the slot, including one cancelled later.
	ErrAlreadyRequested = errors.New("student already reserved this availability")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden is returned when the caller's role or identity does
	// not permit the operation.
	ErrForbidden = errors.New("operation not permitted")
)
