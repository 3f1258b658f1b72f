// Package models defines the core domain models for workflow graphs and versioned documents.
package models

import "time"

// Workflow is a named graph of steps and transitions.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"                   validate:"required,min=3"`
	Description string         `json:"description"`
	Owner       string         `json:"owner"`
	Graph       *Graph         `json:"graph"`
	Version     int            `json:"version"` // Incremented on every graph save
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Role is owned by the backend; graphs reference roles by name only.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required,max=64"`
}

// UnassignedRole is a placeholder role name that never passes validation.
const UnassignedRole = "Unassigned"

// ValidationResult is the outcome of one or more graph checks.
// Errors block saving, warnings only need acknowledgement.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewValidationResult derives IsValid from errors.
func NewValidationResult(errs, warnings []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}

	if warnings == nil {
		warnings = []string{}
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// HasWarnings reports whether acknowledgement is needed before saving.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}
