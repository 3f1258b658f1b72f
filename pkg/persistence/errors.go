package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRoleNotFound indicates a role was not found by the given identifier.
	ErrRoleNotFound = errors.New("role not found")

	// ErrRoleAlreadyExists indicates a role with the same name (case-insensitive) exists.
	ErrRoleAlreadyExists = errors.New("role already exists")

	// ErrDocumentNotFound indicates a document was not found by the given identifier.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSnapshotNotFound indicates the requested document version does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "SaveGraph", "Delete")
	WorkflowID string
	Err        error
	Message    string
}

func (e *WorkflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for workflow %s: %s (%v)", e.Op, e.WorkflowID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// DocumentError wraps document-related errors with additional context.
type DocumentError struct {
	Op         string
	DocumentID string
	Version    int // Zero when the operation is not about one version
	Err        error
}

func (e *DocumentError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("%s operation failed for document %s version %d: %v", e.Op, e.DocumentID, e.Version, e.Err)
	}

	return fmt.Sprintf("%s operation failed for document %s: %v", e.Op, e.DocumentID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewDocumentError(op, documentID string, version int, err error) *DocumentError {
	return &DocumentError{
		Op:         op,
		DocumentID: documentID,
		Version:    version,
		Err:        err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

func IsSnapshotNotFound(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound)
}

func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}
