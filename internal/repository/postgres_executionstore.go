package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// PostgresExecutionStore is the PostgreSQL implementation of ExecutionStore.
type PostgresExecutionStore struct {
	db        *pgxpool.Pool
	workflows *PostgresWorkflowStore
}

// NewPostgresExecutionStore creates a new PostgresExecutionStore.
func NewPostgresExecutionStore(db *pgxpool.Pool) *PostgresExecutionStore {
	return &PostgresExecutionStore{db: db, workflows: NewPostgresWorkflowStore(db)}
}

// Create inserts a fresh execution row. A dangling workflow reference is
// rejected by the foreign key and surfaces as ErrValidation.
func (s *PostgresExecutionStore) Create(ctx context.Context, execution *models.WorkflowExecution) error {
	if execution.ID == "" {
		execution.ID = uuid.New().String()
	}
	if execution.Data == nil {
		execution.Data = map[string]string{}
	}
	now := time.Now().UTC()
	execution.CreatedAt = now
	execution.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO workflow_executions (id, workflow_id, ticket_id, current_step, status, assigned_to, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		execution.ID, execution.WorkflowID, execution.TicketID, execution.CurrentStep,
		string(execution.Status), execution.AssignedTo, execution.Data, execution.CreatedAt, execution.UpdatedAt)
	return mapPgError(err)
}

// GetByTicket fetches the execution for a ticket joined to its workflow.
// The single-row contract holds: zero or multiple matches are ErrNotFound.
func (s *PostgresExecutionStore) GetByTicket(ctx context.Context, ticketID string) (*models.WorkflowExecution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workflow_id, ticket_id, current_step, status, assigned_to, data, created_at, updated_at
		 FROM workflow_executions WHERE ticket_id = $1 LIMIT 2`, ticketID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var matches []*models.WorkflowExecution
	for rows.Next() {
		e, err := scanExecution(rows.Scan)
		if err != nil {
			return nil, err
		}
		matches = append(matches, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		return nil, fmt.Errorf("ticket %s has %d executions: %w", ticketID, len(matches), ErrNotFound)
	}

	execution := matches[0]
	if execution.Workflow, err = s.workflows.Get(ctx, execution.WorkflowID); err != nil {
		return nil, err
	}
	return execution, nil
}

// Get fetches an execution by id with its workflow joined in.
func (s *PostgresExecutionStore) Get(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, workflow_id, ticket_id, current_step, status, assigned_to, data, created_at, updated_at
		 FROM workflow_executions WHERE id = $1`, id)
	execution, err := scanExecution(row.Scan)
	if err != nil {
		return nil, mapPgError(err)
	}
	if execution.Workflow, err = s.workflows.Get(ctx, execution.WorkflowID); err != nil {
		return nil, err
	}
	return execution, nil
}

// AdvanceStep is the compare-and-swap behind every advance: the update
// only lands if the row still sits at fromStep in a non-terminal state, so
// two concurrent advances can never both claim the same step.
func (s *PostgresExecutionStore) AdvanceStep(ctx context.Context, id string, fromStep, toStep int, status models.ExecutionStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflow_executions
		 SET current_step = $2, status = $3, updated_at = now()
		 WHERE id = $1 AND current_step = $4 AND status IN ('pending', 'in_progress')`,
		id, toStep, string(status), fromStep)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("execution %s no longer at step %d: %w", id, fromStep, ErrConflict)
	}
	return nil
}

// Cancel forces a non-terminal execution to cancelled.
func (s *PostgresExecutionStore) Cancel(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflow_executions SET status = 'cancelled', updated_at = now()
		 WHERE id = $1 AND status IN ('pending', 'in_progress')`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("execution %s is terminal: %w", id, ErrConflict)
	}
	return nil
}

func scanExecution(scan func(...any) error) (*models.WorkflowExecution, error) {
	var e models.WorkflowExecution
	err := scan(&e.ID, &e.WorkflowID, &e.TicketID, &e.CurrentStep, &e.Status,
		&e.AssignedTo, &e.Data, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// PostgresLogStore is the PostgreSQL implementation of LogStore.
type PostgresLogStore struct {
	db *pgxpool.Pool
}

// NewPostgresLogStore creates a new PostgresLogStore.
func NewPostgresLogStore(db *pgxpool.Pool) *PostgresLogStore {
	return &PostgresLogStore{db: db}
}

// Append writes one audit entry. Entries are never updated or deleted.
func (s *PostgresLogStore) Append(ctx context.Context, entry *models.WorkflowLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx,
		`INSERT INTO workflow_logs (id, execution_id, step_number, action, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ExecutionID, entry.StepNumber, entry.Action, entry.Notes, entry.CreatedAt)
	return mapPgError(err)
}

// ListByExecution returns the audit trail oldest-first.
func (s *PostgresLogStore) ListByExecution(ctx context.Context, executionID string) ([]*models.WorkflowLog, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, execution_id, step_number, action, notes, created_at
		 FROM workflow_logs WHERE execution_id = $1 ORDER BY created_at, step_number`, executionID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var entries []*models.WorkflowLog
	for rows.Next() {
		var entry models.WorkflowLog
		if err := rows.Scan(&entry.ID, &entry.ExecutionID, &entry.StepNumber, &entry.Action, &entry.Notes, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
