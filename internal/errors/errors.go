// Package errors provides the sentinel errors shared by the client workflow and the API server.
// Callers wrap them with context and match with Is.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate email).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data fails validation. On the client it is
	// raised before any request is sent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Invalid wraps a validation failure so that it matches ErrInvalidInput.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
