package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the case, correspondence and transfer services.
// Callers match with errors.Is; messages carry the offending identity.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrStorageError        = errors.New("storage error")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// ValidationError names the field that failed validation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidationFailed
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}
