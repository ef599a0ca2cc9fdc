package service

import "errors"

// Error categories. Every error returned by a service wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Service errors.
var (
	ErrInvalidCredentials    = newError(ErrUnauthorized, "invalid username or password")
	ErrSessionInvalid        = newError(ErrUnauthorized, "session is missing or expired")
	ErrNotRentalOwner        = newError(ErrForbidden, "rental belongs to another user")
	ErrCarNotFound           = newError(ErrNotFound, "car not found")
	ErrRentalNotFound        = newError(ErrNotFound, "rental not found")
	ErrUsernameTaken         = newError(ErrConflict, "username is already taken")
	ErrCarUnavailable        = newError(ErrConflict, "car is not available")
	ErrRentalAlreadyReturned = newError(ErrConflict, "rental has already been returned")
	ErrCarHasActiveRental    = newError(ErrConflict, "car is currently rented and cannot be deleted")
)

// categorizedError is a sentinel that belongs to a category.
type categorizedError struct {
	category error
	msg      string
}

func newError(category error, msg string) error {
	return &categorizedError{category: category, msg: msg}
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Unwrap() error { return e.category }

// validationError wraps a field rule failure into ErrValidation.
type validationError struct {
	cause error
}

func (e *validationError) Error() string { return e.cause.Error() }

func (e *validationError) Unwrap() []error { return []error{ErrValidation, e.cause} }

func invalid(cause error) error {
	return &validationError{cause: cause}
}
