package resolve

import (
	"fmt"

	"github.com/odyomed/resolve/errors"
)

// ValidationError reports locally invalid input (empty or whitespace-only
// proposed name). Recovered by re-prompting; never a network failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// PersistenceError wraps a non-conflict persist failure. Surfaced to the
// caller so the UI can show a retry affordance; the core performs no
// automatic retry.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist failed: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// ConflictError signals that the backend independently discovered the
// name already exists. It wraps errors.ErrConflict so callers can check
// with errors.Is, and carries the existing entity when the backend knows
// it.
type ConflictError struct {
	Name     string
	Existing Entity
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("entity %q already exists", e.Name)
}

func (e *ConflictError) Unwrap() error {
	return errors.ErrConflict
}
