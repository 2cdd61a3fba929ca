// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrSchemaNotFound indicates no schema is stored under the given reference.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrInvalidSortField indicates a listing asked for an unsupported sort field.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// FlowError wraps flow-related errors with additional context.
type FlowError struct {
	Op     string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	FlowID string
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{Op: op, FlowID: flowID, Err: err}
}

// SchemaError wraps schema-related errors with the reference involved.
type SchemaError struct {
	Op  string
	Ref string
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s operation failed for schema %s: %v", e.Op, e.Ref, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func (e *SchemaError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSchemaError creates a new schema error with context.
func NewSchemaError(op, ref string, err error) *SchemaError {
	return &SchemaError{Op: op, Ref: ref, Err: err}
}

// SortFieldError reports the rejected sort field.
type SortFieldError struct {
	Field string
}

func (e *SortFieldError) Error() string {
	return "invalid sort field: " + e.Field
}

func (e *SortFieldError) Is(target error) bool {
	return target == ErrInvalidSortField
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsSchemaNotFound checks if an error indicates a schema was not found.
func IsSchemaNotFound(err error) bool {
	return errors.Is(err, ErrSchemaNotFound)
}

// IsInvalidSortField checks if an error indicates an unsupported sort field.
func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField)
}
