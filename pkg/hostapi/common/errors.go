package common

import (
	"errors"
	"fmt"
)

// Failure categories surfaced by host operations. Match with errors.Is.
var (
	// ErrUnknownProperty is returned when a property name is not in the entity schema.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrUnknownAction is returned when an action name or id is not declared.
	ErrUnknownAction = errors.New("unknown action")
	// ErrDisabled is returned when the target exists but cannot be used in its current state.
	ErrDisabled = errors.New("disabled")
	// ErrValidation is returned when a value is incompatible with the declared property type.
	ErrValidation = errors.New("validation failed")
	// ErrLoadFailure is returned when a loader entry point rejects.
	ErrLoadFailure = errors.New("load failure")
)

// PropertyError reports a failed property change.
type PropertyError struct {
	Property string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("property %s: %v", e.Property, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// ActionError reports a failed action execution. Action holds the action name
// for cards and the action id for covers.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// LoadError reports a rejected loader entry point. It always matches
// ErrLoadFailure as well as the cause returned by the entry point.
type LoadError struct {
	Control string
	Loader  string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load control %s (loader %s): %v", e.Control, e.Loader, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrLoadFailure, e.Err} }
