// Package validation holds the structural and field rules a workflow graph
// must satisfy before it is saved.
//
// Every validator is a pure function over the graph state. Validators never
// return errors or panic: they report violations as human-readable strings in
// a models.ValidationResult. Nodes and edges marked ToDelete are treated as
// already absent by every rule.
//
// ValidateGraph runs all rules in a fixed order and never short-circuits, so
// callers can present the complete list of problems in one pass.
package validation
