// Package repository defines the keyed-record store contracts backing the
// support hub and their PostgreSQL implementations.
package repository

import (
	"context"
	"errors"

	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// Error taxonomy surfaced by every store. Callers discriminate with
// errors.Is; no store retries on its own.
var (
	// ErrNotFound: zero rows (or more than one where exactly one was
	// expected).
	ErrNotFound = errors.New("record not found")
	// ErrConflict: a conditional write matched no row, i.e. the record
	// changed underneath the caller.
	ErrConflict = errors.New("record changed concurrently")
	// ErrValidation: the write was rejected by a store-side constraint.
	ErrValidation = errors.New("record rejected by validation")
)

// WorkflowStore persists workflow definitions. A definition and its step
// sequence are written as an atomic unit; steps are never partially
// persisted.
type WorkflowStore interface {
	Create(ctx context.Context, workflow *models.Workflow) error
	Get(ctx context.Context, id string) (*models.Workflow, error)
	// GetActiveByCategory resolves the active workflow bound to a ticket
	// category. When more than one active binding exists the oldest wins.
	GetActiveByCategory(ctx context.Context, categoryID string) (*models.Workflow, error)
	List(ctx context.Context) ([]*models.Workflow, error)
	Deactivate(ctx context.Context, id string) error
}

// ExecutionStore persists workflow executions. Advances go through a
// compare-and-swap so concurrent callers cannot both claim the same step.
type ExecutionStore interface {
	Create(ctx context.Context, execution *models.WorkflowExecution) error
	// GetByTicket fetches the single execution for a ticket with its
	// workflow definition joined in. Zero or multiple matches surface as
	// ErrNotFound.
	GetByTicket(ctx context.Context, ticketID string) (*models.WorkflowExecution, error)
	Get(ctx context.Context, id string) (*models.WorkflowExecution, error)
	// AdvanceStep atomically moves the execution from fromStep to toStep,
	// setting status, but only if the row still sits at fromStep in a
	// non-terminal state. Returns ErrConflict otherwise.
	AdvanceStep(ctx context.Context, id string, fromStep, toStep int, status models.ExecutionStatus) error
	// Cancel moves a non-terminal execution to cancelled. Returns
	// ErrConflict if the execution already reached a terminal state.
	Cancel(ctx context.Context, id string) error
}

// LogStore appends and reads the immutable per-execution audit trail.
type LogStore interface {
	Append(ctx context.Context, entry *models.WorkflowLog) error
	ListByExecution(ctx context.Context, executionID string) ([]*models.WorkflowLog, error)
}

// RuleStore reads matcher rules and records chatbot usage.
type RuleStore interface {
	// ListChatbotRules returns active rules in insertion order, which is
	// the documented tie-break for equal chatbot scores.
	ListChatbotRules(ctx context.Context) ([]*models.ChatbotRule, error)
	IncrementUsage(ctx context.Context, ruleID string) error
	// ListAutoResponses returns active rules sorted by ascending priority.
	ListAutoResponses(ctx context.Context) ([]*models.AutoResponseRule, error)
}
