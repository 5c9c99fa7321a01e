package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity is required to exist and does not.
	ErrNotFound = errors.New("entity was not found")

	// ErrValidation is returned when an input violates a domain constraint.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when an operation is not permitted in the current user state.
	ErrInvalidState = errors.New("operation not permitted in current state")

	// ErrInvalidCredentials is returned when a username/password pair does not authenticate.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StateError reports an illegal lifecycle operation.
type StateError struct {
	// From is the state the user was in when the operation was attempted.
	From UserState

	// Op is the attempted operation.
	Op string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s user in state %s", e.Op, e.From)
}

// Is makes StateError match ErrInvalidState.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
