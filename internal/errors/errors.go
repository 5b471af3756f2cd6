//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import (
	"fmt"
	"strings"
)

// NotInitializedError indicates the stint data directory doesn't exist.
type NotInitializedError struct{}

func (e NotInitializedError) Error() string {
	return "stint not initialized: run 'stint init' first"
}

// AlreadyInitializedError indicates the stint data directory already exists.
type AlreadyInitializedError struct{}

func (e AlreadyInitializedError) Error() string {
	return "stint already initialized"
}

// NotInRepoError indicates project scoping was requested outside a git repository.
type NotInRepoError struct{}

func (e NotInRepoError) Error() string {
	return "not in a git repository (project-scoped storage requires a project root)"
}

// TaskNotFoundError indicates the task ID doesn't match any task.
type TaskNotFoundError struct {
	ID string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// AmbiguousIDError indicates an ID prefix matches more than one task.
type AmbiguousIDError struct {
	Prefix  string
	Matches []string
}

func (e AmbiguousIDError) Error() string {
	return fmt.Sprintf("id prefix %q is ambiguous: %s", e.Prefix, strings.Join(e.Matches, ", "))
}

// ValidationError indicates user input was rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError indicates the task is in the wrong state for the operation.
type InvalidStateError struct {
	ID    string
	State string
	Op    string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s task %s: task is %s", e.Op, e.ID, e.State)
}

// EstimateLockedError indicates the estimate can no longer change because work has started.
type EstimateLockedError struct {
	ID string
}

func (e EstimateLockedError) Error() string {
	return fmt.Sprintf("estimate of task %s is locked once the timer has been started", e.ID)
}
