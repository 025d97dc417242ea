package container

import (
	"errors"
	"fmt"
)

// ErrEmptyFactory is the cause recorded when a factory returns nil.
var ErrEmptyFactory = errors.New("factory returned no value")

// ErrNotCallable is returned by Call and Func when the callable is not a function.
var ErrNotCallable = errors.New("value is not callable")

// NotFoundError is returned when no resolver produced a value for ID.
// Cause, when set, is the failure of the construction attempt.
type NotFoundError struct {
	ID    string
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("container: entry [%s] not found: %v", e.ID, e.Cause)
	}
	return fmt.Sprintf("container: entry [%s] not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// ResolutionError reports a required parameter that could not be resolved
// and has no applicable default.
type ResolutionError struct {
	ID        string
	Function  string
	Position  int
	Parameter string
	Type      string
	Cause     error
}

func (e *ResolutionError) Error() string {
	id := e.ID
	if id == "" {
		id = e.Function
	}
	return fmt.Sprintf("container: cannot resolve [%s]: %s() parameter #%d $%s of type %s",
		id, e.Function, e.Position, e.Parameter, e.Type)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// UnsupportedTypeError is returned for intersection-typed parameters.
type UnsupportedTypeError struct {
	Function  string
	Parameter string
	Type      string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("container: %s() parameter $%s uses unsupported intersection type %s",
		e.Function, e.Parameter, e.Type)
}

// DuplicateResolverError is returned when a resolver instance is added twice.
type DuplicateResolverError struct {
	Resolver string
}

func (e *DuplicateResolverError) Error() string {
	return fmt.Sprintf("container: resolver %s is already registered", e.Resolver)
}

// DefinitionError reports an invalid type descriptor or callable.
type DefinitionError struct {
	Name   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("container: invalid definition [%s]: %s", e.Name, e.Reason)
}

// boundary rewraps parameter failures that escaped a resolver so callers of
// Get, Make and Call only have to look for *NotFoundError.
func boundary(id string, err error) error {
	switch err.(type) {
	case *ResolutionError, *UnsupportedTypeError:
		return &NotFoundError{ID: id, Cause: err}
	}
	return err
}
