package domain

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidImage  = errors.New("image must be a base64 encoded data URL")
	ErrImageNotFound = errors.New("image not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateBook = errors.New("book with this idempotency key already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("email already registered")
	ErrNameMismatch  = errors.New("invalid name or email")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("access forbidden")
	ErrUpstream      = errors.New("service temporarily unavailable")
)

// ValidationError describes a rejected input field. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
