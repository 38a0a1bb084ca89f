package models

import "time"

// ExecutionStatus enumerates the lifecycle states of a workflow execution.
// The state machine is linear: pending -> in_progress -> completed, with
// cancelled reachable from any non-terminal state.
type ExecutionStatus string

const (
	ExecutionStatusPending    ExecutionStatus = "pending"
	ExecutionStatusInProgress ExecutionStatus = "in_progress"
	ExecutionStatusCompleted  ExecutionStatus = "completed"
	ExecutionStatusCancelled  ExecutionStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusCancelled
}

// WorkflowExecution is one ticket's live progress instance against a
// workflow definition. CurrentStep is a zero-based index into the
// workflow's step sequence; CurrentStep == len(Steps) holds exactly when
// Status == completed.
type WorkflowExecution struct {
	ID          string            `json:"id"`
	WorkflowID  string            `json:"workflow_id"`
	TicketID    string            `json:"ticket_id"`
	CurrentStep int               `json:"current_step"`
	Status      ExecutionStatus   `json:"status"`
	AssignedTo  *string           `json:"assigned_to,omitempty"`
	Data        map[string]string `json:"data,omitempty"` // opaque step-specific state
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Workflow is the joined definition, populated on reads that project
	// the owning workflow. Never persisted as part of the execution row.
	Workflow *Workflow `json:"workflow,omitempty"`
}

// ActionStepCompleted tags the log entry written for every successful
// advance.
const ActionStepCompleted = "step_completed"

// WorkflowLog is an append-only audit entry for one execution action.
// Rows are never mutated or deleted once written.
type WorkflowLog struct {
	ID          string    `json:"id"`
	ExecutionID string    `json:"execution_id"`
	StepNumber  int       `json:"step_number"` // step index active when the action happened
	Action      string    `json:"action"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
