package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("SaveGraph", "workflow-123", persistence.ErrWorkflowNotFound)
		documentErr := persistence.NewDocumentError("GetSnapshot", "doc-1", 4, persistence.ErrSnapshotNotFound)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsSnapshotNotFound(documentErr))
		assert.False(t, persistence.IsDocumentNotFound(documentErr))

		assert.True(t, errors.Is(workflowErr, persistence.ErrWorkflowNotFound))
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		err := persistence.NewWorkflowError("SaveGraph", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.Contains(t, err.Error(), "SaveGraph")
		assert.Contains(t, err.Error(), "workflow-123")
		assert.Contains(t, err.Error(), "workflow not found")
	})

	t.Run("document error names the version", func(t *testing.T) {
		err := persistence.NewDocumentError("GetSnapshot", "doc-1", 4, persistence.ErrSnapshotNotFound)

		assert.Equal(t, "GetSnapshot operation failed for document doc-1 version 4: snapshot not found", err.Error())

		var target *persistence.DocumentError
		assert.True(t, errors.As(err, &target))
	})
}
