// Package models defines the domain models for the support hub backend.
package models

import "time"

// StepKind classifies who or what is expected to complete a workflow step.
// The kind is descriptive metadata: it does not change how an execution
// advances, only which actor triggers the advance.
type StepKind string

const (
	StepKindAuto     StepKind = "auto"
	StepKindManual   StepKind = "manual"
	StepKindApproval StepKind = "approval"
)

// ValidStepKind reports whether k is one of the known step kinds.
func ValidStepKind(k StepKind) bool {
	switch k {
	case StepKindAuto, StepKindManual, StepKindApproval:
		return true
	}
	return false
}

// WorkflowStep is a single typed step inside a workflow definition. Steps
// are immutable once the workflow is referenced by any execution.
type WorkflowStep struct {
	Name        string   `json:"name"`
	Kind        StepKind `json:"kind"`
	Role        *string  `json:"role,omitempty"` // required capability, manual/approval only
	Description string   `json:"description,omitempty"`
}

// Workflow is a named, ordered template of steps a ticket can be routed
// through. A workflow may be bound to a ticket category, making it the
// default workflow for tickets of that category.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	CategoryID  *string        `json:"category_id,omitempty"`
	Description string         `json:"description,omitempty"`
	IsActive    bool           `json:"is_active"`
	Steps       []WorkflowStep `json:"steps"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
