/*
errors.go - Error taxonomy for the settlement engine

PURPOSE:
  All failure types in one place. Every operation of the core returns one of
  four typed errors; callers branch with errors.Is on the sentinels or
  errors.As on the concrete types. The core never retries and never turns a
  failure into a silent default.

ERROR CATEGORIES:
  ValidationError:  malformed input for the selected pay model, negative total
  StateError:       invalid timesheet transition
  NotFoundError:    no active contract, unknown timesheet / group / worker
  ConsistencyError: contract invariant violated

REPOSITORY SENTINELS:
  ErrConcurrentModification is what a repository returns when a
  compare-and-set on timesheet status loses. The approval state machine maps
  it to StateError(InvalidTransition).

USAGE:
  if errors.Is(err, generic.ErrNotFound) { ... }

  var se *generic.StateError
  if errors.As(err, &se) && se.Kind == generic.KindInvalidTransition { ... }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation  = errors.New("validation failed")
	ErrState       = errors.New("invalid state")
	ErrNotFound    = errors.New("not found")
	ErrConsistency = errors.New("consistency violation")

	// ErrConcurrentModification is returned by repositories when the stored
	// status no longer matches the expected one.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// Kind is a stable machine-readable error code surfaced to callers.
type Kind string

const (
	KindMissingField  Kind = "MissingField"
	KindInvalidValue  Kind = "InvalidValue"
	KindNegativeTotal Kind = "NegativeTotal"

	KindInvalidTransition Kind = "InvalidTransition"
	KindAlreadyExists     Kind = "AlreadyExists"

	KindNoActiveContract Kind = "NoActiveContract"
	KindUnknownTimesheet Kind = "UnknownTimesheet"
	KindUnknownGroup     Kind = "UnknownGroup"
	KindUnknownWorker    Kind = "UnknownWorker"

	KindOverlappingActive  Kind = "OverlappingActive"
	KindNonMonotonicStart  Kind = "NonMonotonicStart"
	KindSupersededReadOnly Kind = "SupersededReadOnly"
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

type ValidationError struct {
	Kind    Kind
	Message string
}

func NewValidationError(kind Kind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type StateError struct {
	Kind    Kind
	Message string
}

func NewStateError(kind Kind, format string, args ...any) *StateError {
	return &StateError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error (%s): %s", e.Kind, e.Message)
}

func (e *StateError) Unwrap() error { return ErrState }

type NotFoundError struct {
	Kind    Kind
	Message string
}

func NewNotFoundError(kind Kind, format string, args ...any) *NotFoundError {
	return &NotFoundError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found (%s): %s", e.Kind, e.Message)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type ConsistencyError struct {
	Kind    Kind
	Message string
}

func NewConsistencyError(kind Kind, format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency error (%s): %s", e.Kind, e.Message)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// KindOf extracts the Kind from any of the typed errors, or "" otherwise.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		se *StateError
		ne *NotFoundError
		ce *ConsistencyError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Kind
	case errors.As(err, &se):
		return se.Kind
	case errors.As(err, &ne):
		return ne.Kind
	case errors.As(err, &ce):
		return ce.Kind
	}
	return ""
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict returns true for state and consistency failures.
func IsConflict(err error) bool {
	return errors.Is(err, ErrState) || errors.Is(err, ErrConsistency) ||
		errors.Is(err, ErrConcurrentModification)
}
