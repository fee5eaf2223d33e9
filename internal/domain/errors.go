// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the entity violates a uniqueness constraint.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates caller-supplied input is malformed. The data API
// returns these inside the structured response envelope, never as a 4xx.
var ErrValidation = errors.New("validation")

// ErrUnauthorized indicates a missing or unknown API credential. Surfaced as
// a bare 401 with no response body.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError carries the caller-facing message for a malformed input.
// errors.Is(err, ErrValidation) matches it.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationMessage extracts the caller-facing message from a validation
// error chain. Returns the empty string for other errors.
func ValidationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	if errors.Is(err, ErrValidation) {
		return err.Error()
	}
	return ""
}
