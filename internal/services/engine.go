// Package services contains the workflow execution engine, the matcher
// strategies and the notification client.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/brus83/proactive-it-support-hub-sub001/internal/repository"
	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// ErrExecutionFinished is returned when an advance or cancel targets an
// execution that already reached a terminal state.
var ErrExecutionFinished = errors.New("execution already finished")

// WorkflowEngine drives ticket workflow executions: it creates them,
// advances them one step at a time and appends the audit trail.
type WorkflowEngine struct {
	workflows  repository.WorkflowStore
	executions repository.ExecutionStore
	logs       repository.LogStore
	notifier   Notifier
	log        *logrus.Logger
	advances   metric.Int64Counter
}

// NewWorkflowEngine creates a new WorkflowEngine.
func NewWorkflowEngine(workflows repository.WorkflowStore, executions repository.ExecutionStore, logs repository.LogStore, notifier Notifier, log *logrus.Logger) *WorkflowEngine {
	meter := otel.Meter("supporthub/engine")
	advances, err := meter.Int64Counter("workflow.advances",
		metric.WithDescription("Workflow advance calls by outcome"))
	if err != nil {
		log.WithError(err).Warn("advance counter unavailable")
	}
	return &WorkflowEngine{
		workflows:  workflows,
		executions: executions,
		logs:       logs,
		notifier:   notifier,
		log:        log,
		advances:   advances,
	}
}

// CreateWorkflowDefinition validates and inserts a workflow with its step
// sequence as one atomic unit. A workflow without steps is never usable,
// so it is rejected here rather than failing later on advance.
func (e *WorkflowEngine) CreateWorkflowDefinition(ctx context.Context, workflow *models.Workflow) error {
	if workflow.Name == "" {
		return fmt.Errorf("workflow name is required: %w", repository.ErrValidation)
	}
	if len(workflow.Steps) == 0 {
		return fmt.Errorf("workflow %q needs at least one step: %w", workflow.Name, repository.ErrValidation)
	}
	for i, step := range workflow.Steps {
		if step.Name == "" {
			return fmt.Errorf("step %d has no name: %w", i, repository.ErrValidation)
		}
		if !models.ValidStepKind(step.Kind) {
			return fmt.Errorf("step %d has unknown kind %q: %w", i, step.Kind, repository.ErrValidation)
		}
	}
	return e.workflows.Create(ctx, workflow)
}

// ResolveWorkflowForCategory returns the active workflow bound to a ticket
// category.
func (e *WorkflowEngine) ResolveWorkflowForCategory(ctx context.Context, categoryID string) (*models.Workflow, error) {
	workflow, err := e.workflows.GetActiveByCategory(ctx, categoryID)
	if err != nil {
		e.log.WithError(err).WithField("category_id", categoryID).Debug("no workflow for category")
		return nil, err
	}
	return workflow, nil
}

// ListWorkflows returns all active workflow definitions.
func (e *WorkflowEngine) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return e.workflows.List(ctx)
}

// StartExecution creates a new execution for the ticket at step zero.
//
// No uniqueness is enforced per ticket: starting twice yields two
// independent executions, and resolving that is the caller's
// responsibility (intended usage is one execution per ticket).
func (e *WorkflowEngine) StartExecution(ctx context.Context, workflowID, ticketID string, data map[string]string) (string, error) {
	execution := &models.WorkflowExecution{
		WorkflowID:  workflowID,
		TicketID:    ticketID,
		CurrentStep: 0,
		Status:      models.ExecutionStatusPending,
		Data:        data,
	}
	if err := e.executions.Create(ctx, execution); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"workflow_id": workflowID,
			"ticket_id":   ticketID,
		}).Error("failed to start execution")
		return "", err
	}
	return execution.ID, nil
}

// FetchExecution returns the ticket's execution with its workflow joined
// in. Zero or multiple matching executions surface as not found.
func (e *WorkflowEngine) FetchExecution(ctx context.Context, ticketID string) (*models.WorkflowExecution, error) {
	return e.executions.GetByTicket(ctx, ticketID)
}

// Advance moves the execution exactly one step forward.
//
// The write is a compare-and-swap conditioned on the step index read here,
// so of N concurrent calls only one can claim each step; the losers get
// repository.ErrConflict. The audit append and the completion notification
// are best-effort: once the state transition committed, their failure does
// not roll it back.
func (e *WorkflowEngine) Advance(ctx context.Context, executionID, notes string) error {
	execution, err := e.executions.Get(ctx, executionID)
	if err != nil {
		e.countAdvance(ctx, "not_found")
		return err
	}
	if execution.Status.Terminal() {
		e.countAdvance(ctx, "terminal")
		return fmt.Errorf("execution %s is %s: %w", executionID, execution.Status, ErrExecutionFinished)
	}

	steps := execution.Workflow.Steps
	if execution.CurrentStep >= len(steps) {
		e.countAdvance(ctx, "invalid")
		return fmt.Errorf("execution %s step index %d out of range for %d steps", executionID, execution.CurrentStep, len(steps))
	}

	nextStep := execution.CurrentStep + 1
	status := models.ExecutionStatusInProgress
	completed := nextStep >= len(steps)
	if completed {
		status = models.ExecutionStatusCompleted
	}

	if err := e.executions.AdvanceStep(ctx, executionID, execution.CurrentStep, nextStep, status); err != nil {
		e.countAdvance(ctx, "conflict")
		return err
	}
	e.countAdvance(ctx, "ok")

	finished := steps[execution.CurrentStep]
	if notes == "" {
		notes = "Completed step: " + finished.Name
	}
	entry := &models.WorkflowLog{
		ExecutionID: executionID,
		StepNumber:  execution.CurrentStep,
		Action:      models.ActionStepCompleted,
		Notes:       notes,
	}
	if err := e.logs.Append(ctx, entry); err != nil {
		// The transition is already committed; the trail under-reports.
		e.log.WithError(err).WithField("execution_id", executionID).Warn("audit log append failed")
	}

	if completed {
		e.notifyCompleted(ctx, execution)
	}
	return nil
}

// CancelExecution forces a non-terminal execution to cancelled. This is
// the external actor's entry point; Advance never cancels.
func (e *WorkflowEngine) CancelExecution(ctx context.Context, executionID string) error {
	if err := e.executions.Cancel(ctx, executionID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("execution %s: %w", executionID, ErrExecutionFinished)
		}
		return err
	}
	return nil
}

// Logs returns the execution's audit trail, oldest first.
func (e *WorkflowEngine) Logs(ctx context.Context, executionID string) ([]*models.WorkflowLog, error) {
	return e.logs.ListByExecution(ctx, executionID)
}

func (e *WorkflowEngine) notifyCompleted(ctx context.Context, execution *models.WorkflowExecution) {
	to := execution.Data["requester_email"]
	if to == "" {
		return
	}
	subject := fmt.Sprintf("Ticket %s: workflow %q completed", execution.TicketID, execution.Workflow.Name)
	body := fmt.Sprintf("<p>All steps of workflow <strong>%s</strong> for ticket %s are complete.</p>",
		execution.Workflow.Name, execution.TicketID)
	if err := e.notifier.Send(ctx, to, subject, CategoryReminder, body); err != nil {
		e.log.WithError(err).WithField("execution_id", execution.ID).Warn("completion notification failed")
	}
}

func (e *WorkflowEngine) countAdvance(ctx context.Context, outcome string) {
	if e.advances == nil {
		return
	}
	e.advances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
