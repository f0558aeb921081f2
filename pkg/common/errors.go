package common

import "fmt"

// ValidationError reports malformed input: a bad predicate code, a
// wrong-length embedding, an empty required field. The write was
// rejected before touching any row.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness collision that the caller must
// resolve, such as writing a second chunk at an occupied (item, ord)
// slot. Idempotent duplicates are not conflicts; they return the
// existing row instead.
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s: %s", e.Resource, e.Detail)
}

// NewConflictError builds a ConflictError for a named resource.
func NewConflictError(resource, format string, args ...any) *ConflictError {
	return &ConflictError{Resource: resource, Detail: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a lookup miss on a required row.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %q", e.Resource, e.Key)
}

// NewNotFoundError builds a NotFoundError for a named resource and key.
func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// ConsistencyError reports an internal invariant violation, such as a
// mirror edge pointing at a predicate with no inverse. These indicate a
// bug or corrupted state, never bad caller input.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency: %s", e.Detail)
}

// NewConsistencyError builds a ConsistencyError.
func NewConsistencyError(format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Detail: fmt.Sprintf(format, args...)}
}
