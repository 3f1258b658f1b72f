package web

import (
	"github.com/dukex/flowdraft/pkg/diff"
	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/models"
	"github.com/moogar0880/problems"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"               validate:"required,min=3"`
	Description string         `json:"description"`
	Owner       string         `json:"owner"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Graph       *models.Graph  `json:"graph,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating workflow metadata.
// All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string        `json:"description,omitempty"`
	Owner       *string        `json:"owner,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SaveGraphResponse is returned after a graph replaced the stored one.
type SaveGraphResponse struct {
	Version     int                     `json:"version"`
	Graph       *models.Graph           `json:"graph"`
	AssignedIDs map[models.ID]models.ID `json:"assigned_ids"`
	Warnings    []string                `json:"warnings"`
}

// CreateNodeRequest adds a step to a draft. ID may be empty or temporary.
type CreateNodeRequest struct {
	ID          models.ID `json:"id"`
	Name        string    `json:"name"        validate:"max=255"`
	Role        string    `json:"role"        validate:"max=64"`
	Description string    `json:"description" validate:"max=1000"`
	IsStart     bool      `json:"is_start"`
	IsEnd       bool      `json:"is_end"`
	PositionX   int       `json:"position_x"`
	PositionY   int       `json:"position_y"`
}

// CreateEdgeRequest adds a transition to a draft. A nil source or target
// creates a synthetic start or end edge.
type CreateEdgeRequest struct {
	ID     models.ID  `json:"id"`
	Source *models.ID `json:"source"`
	Target *models.ID `json:"target"`
	Name   string     `json:"name"   validate:"max=255"`
}

// SelectRequest replaces the draft selection.
type SelectRequest struct {
	IDs []models.ID `json:"ids"`
}

// ShortcutRequest carries a key combination pressed in the editor.
type ShortcutRequest struct {
	Combo string `json:"combo" validate:"required"`
}

// ShortcutResponse reports whether the combination triggered a save.
type ShortcutResponse struct {
	Handled bool                `json:"handled"`
	Outcome *editor.SaveOutcome `json:"outcome,omitempty"`
}

// DraftResponse is the full view of an editing session.
type DraftResponse struct {
	editor.Status

	LeaveGuard bool          `json:"leave_guard"`
	Graph      *models.Graph `json:"graph"`
}

// CreateRoleRequest represents the request body for adding a role to the roster.
type CreateRoleRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// CreateDocumentRequest represents the request body for creating a document.
type CreateDocumentRequest struct {
	Title   string `json:"title"   validate:"required,max=255"`
	Content string `json:"content"`
	Author  string `json:"author"  validate:"required"`
}

// UpdateDocumentRequest records a new document version.
type UpdateDocumentRequest struct {
	Content string `json:"content"`
	Author  string `json:"author"  validate:"required"`
}

// RestoreRequest names who restores a version.
type RestoreRequest struct {
	Author string `json:"author" validate:"required"`
}

// RestoreResponse is the document after a restore plus the snapshot it created.
type RestoreResponse struct {
	Document *models.Document        `json:"document"`
	Snapshot *models.VersionSnapshot `json:"snapshot"`
}

// DiffRequest compares two texts outside of any document history.
type DiffRequest struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// DiffResponse holds the runs of an ad-hoc comparison.
type DiffResponse struct {
	Granularity diff.Granularity `json:"granularity"`
	Runs        []diff.Run       `json:"runs"`
	Stats       diff.Stats       `json:"stats"`
}

// ValidationProblem is a problem response listing every violation.
type ValidationProblem struct {
	*problems.Problem

	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
