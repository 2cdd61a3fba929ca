// Package services implements flowgate's flow and schema business operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/schema"
)

// Client errors, mapped to 4xx responses.
var (
	// 400 Bad Request.
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidSortField  = errors.New("invalid sort field")
	ErrInvalidStatus     = errors.New("invalid flow status")
	ErrSchemaInvalid     = errors.New("schema is invalid")
	ErrStartNodeRequired = errors.New("flow must have exactly one start node")
	ErrEdgeEndpoint      = errors.New("edge endpoint does not exist")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrNotStartConfig    = errors.New("start node data is not a start configuration")

	// 404 Not Found.
	ErrNodeNotFound = errors.New("node not found")

	// 409 Conflict.
	ErrFlowInvalid           = errors.New("flow has blocking validation errors")
	ErrFlowActive            = errors.New("active flows cannot be modified")
	ErrStartNodeNotDeletable = errors.New("the start node cannot be removed")
	ErrDuplicateStartNode    = errors.New("flow already has a start node")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// FlowInvalidError carries the findings that blocked an activation.
type FlowInvalidError struct {
	FlowID string
	Issues []models.ValidationError
}

func (e *FlowInvalidError) Error() string {
	return fmt.Sprintf("flow %s has %d blocking validation errors", e.FlowID, len(models.Errors(e.Issues)))
}

func (e *FlowInvalidError) Is(target error) bool {
	return target == ErrFlowInvalid
}

// SchemaInvalidError carries the report of a rejected schema.
type SchemaInvalidError struct {
	Ref    string
	Report schema.Report
}

func (e *SchemaInvalidError) Error() string {
	return fmt.Sprintf("schema %s is invalid: %v", e.Ref, e.Report.Errors)
}

func (e *SchemaInvalidError) Is(target error) bool {
	return target == ErrSchemaInvalid
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrSchemaInvalid) ||
		errors.Is(err, ErrStartNodeRequired) ||
		errors.Is(err, ErrEdgeEndpoint) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrNotStartConfig)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrFlowInvalid) ||
		errors.Is(err, ErrFlowActive) ||
		errors.Is(err, ErrStartNodeNotDeletable) ||
		errors.Is(err, ErrDuplicateStartNode)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
