// Package services implements the workflow and document use cases on top of persistence.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrInvalidGraph         = errors.New("workflow graph is invalid")
	ErrInvalidVersion       = errors.New("invalid document version")
	ErrDocumentTitleMissing = errors.New("document title is required")

	// Business Logic Conflicts (409 Conflict).
	ErrContentUnavailable = errors.New("snapshot content is unavailable")
	ErrRoleAlreadyExists  = persistence.ErrRoleAlreadyExists

	// Not Found (404).
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
	ErrDocumentNotFound = persistence.ErrDocumentNotFound
	ErrSnapshotNotFound = persistence.ErrSnapshotNotFound
	ErrRoleNotFound     = persistence.ErrRoleNotFound
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

// GraphValidationError carries every blocking problem found in a graph.
type GraphValidationError struct {
	Result models.ValidationResult
}

func (e *GraphValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidGraph, strings.Join(e.Result.Errors, "; "))
}

func (e *GraphValidationError) Is(target error) bool {
	return target == ErrInvalidGraph
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrInvalidGraph) ||
		errors.Is(err, ErrInvalidVersion) ||
		errors.Is(err, ErrDocumentTitleMissing) ||
		errors.Is(err, models.ErrInvalidID)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrContentUnavailable) ||
		errors.Is(err, ErrRoleAlreadyExists)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrSnapshotNotFound) ||
		errors.Is(err, ErrRoleNotFound)
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
