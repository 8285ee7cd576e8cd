package tfsm

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTable is returned when the state table has no rows.
	ErrEmptyTable = errors.New("state table is empty")
	// ErrInvalidSteps is returned for a state with fewer than one step.
	ErrInvalidSteps = errors.New("steps must be at least 1")
	// ErrInvalidDelay is returned for a negative post-steps delay.
	ErrInvalidDelay = errors.New("delay must not be negative")
	// ErrInvalidCyclePeriod is returned for a negative cycle period.
	ErrInvalidCyclePeriod = errors.New("cycle period must not be negative")
	// ErrSuccessorOutOfRange is returned when a successor index is not a table row.
	ErrSuccessorOutOfRange = errors.New("successor index out of range")

	// ErrConfigNameRequired indicates that a table config has no name.
	ErrConfigNameRequired = errors.New("config name is required")
	// ErrStateNameRequired indicates that a state has no name.
	ErrStateNameRequired = errors.New("state name is required")
	// ErrDuplicateStateName indicates that two states share a name.
	ErrDuplicateStateName = errors.New("duplicate state name")
	// ErrUnknownSuccessor indicates that a successor names no state.
	ErrUnknownSuccessor = errors.New("successor does not name a state")
	// ErrUnknownCallback indicates that a callback name is not registered.
	ErrUnknownCallback = errors.New("callback is not registered")
	// ErrDuplicateCallback indicates that a callback name is already registered.
	ErrDuplicateCallback = errors.New("callback is already registered")
	// ErrNilCallback indicates an attempt to register a nil callback.
	ErrNilCallback = errors.New("callback is nil")
	// ErrCallbackNameRequired indicates an attempt to register an unnamed callback.
	ErrCallbackNameRequired = errors.New("callback name is required")
)

// StateError wraps a table error with the row it was found in.
type StateError struct {
	Index int
	Name  string
	Err   error
}

func (e *StateError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("state %d: %v", e.Index, e.Err)
	}

	return fmt.Sprintf("state %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func wrapStateError(index int, name string, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{
		Index: index,
		Name:  name,
		Err:   err,
	}
}
