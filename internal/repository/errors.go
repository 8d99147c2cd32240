package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProjectNotFound is returned when a child record names an unknown project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectHasChildren is returned when deleting a project that still
	// owns records without asking for a cascade.
	ErrProjectHasChildren = errors.New("project still has workers, materials, equipment or expenses")
	// ErrInvalidCredentials is returned by Authenticate on a mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports the first invalid field of an input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
