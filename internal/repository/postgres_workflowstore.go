package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// PostgresWorkflowStore is the PostgreSQL implementation of WorkflowStore.
type PostgresWorkflowStore struct {
	db *pgxpool.Pool
}

// NewPostgresWorkflowStore creates a new PostgresWorkflowStore.
func NewPostgresWorkflowStore(db *pgxpool.Pool) *PostgresWorkflowStore {
	return &PostgresWorkflowStore{db: db}
}

// Create inserts the workflow and its step sequence in one transaction.
func (s *PostgresWorkflowStore) Create(ctx context.Context, workflow *models.Workflow) error {
	if len(workflow.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps: %w", workflow.Name, ErrValidation)
	}
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin workflow insert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO workflows (id, name, category_id, description, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		workflow.ID, workflow.Name, workflow.CategoryID, workflow.Description, workflow.IsActive,
		workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}

	for i, step := range workflow.Steps {
		_, err = tx.Exec(ctx,
			`INSERT INTO workflow_steps (workflow_id, ordinal, name, kind, role, description)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			workflow.ID, i, step.Name, string(step.Kind), step.Role, step.Description)
		if err != nil {
			return mapPgError(err)
		}
	}

	return tx.Commit(ctx)
}

// Get fetches a workflow with its ordered step sequence.
func (s *PostgresWorkflowStore) Get(ctx context.Context, id string) (*models.Workflow, error) {
	var w models.Workflow
	err := s.db.QueryRow(ctx,
		`SELECT id, name, category_id, description, is_active, created_at, updated_at
		 FROM workflows WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.CategoryID, &w.Description, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	if w.Steps, err = s.loadSteps(ctx, w.ID); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetActiveByCategory resolves the active workflow bound to a category.
// Multiple active bindings are implementation-defined: the oldest row wins.
func (s *PostgresWorkflowStore) GetActiveByCategory(ctx context.Context, categoryID string) (*models.Workflow, error) {
	var w models.Workflow
	err := s.db.QueryRow(ctx,
		`SELECT id, name, category_id, description, is_active, created_at, updated_at
		 FROM workflows WHERE category_id = $1 AND is_active
		 ORDER BY created_at LIMIT 1`, categoryID).
		Scan(&w.ID, &w.Name, &w.CategoryID, &w.Description, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	if w.Steps, err = s.loadSteps(ctx, w.ID); err != nil {
		return nil, err
	}
	return &w, nil
}

// List returns all active workflows ordered by name.
func (s *PostgresWorkflowStore) List(ctx context.Context) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, category_id, description, is_active, created_at, updated_at
		 FROM workflows WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		var w models.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.CategoryID, &w.Description, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		workflows = append(workflows, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, w := range workflows {
		if w.Steps, err = s.loadSteps(ctx, w.ID); err != nil {
			return nil, err
		}
	}
	return workflows, nil
}

// Deactivate excludes the workflow from category lookup and listing.
// Existing executions that reference it stay valid.
func (s *PostgresWorkflowStore) Deactivate(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflows SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresWorkflowStore) loadSteps(ctx context.Context, workflowID string) ([]models.WorkflowStep, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, kind, role, description FROM workflow_steps
		 WHERE workflow_id = $1 ORDER BY ordinal`, workflowID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var steps []models.WorkflowStep
	for rows.Next() {
		var step models.WorkflowStep
		if err := rows.Scan(&step.Name, &step.Kind, &step.Role, &step.Description); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// mapPgError folds driver errors into the store taxonomy.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w", ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23505", "23514": // fk, unique, check violations
			return fmt.Errorf("%s: %w", pgErr.Message, ErrValidation)
		}
	}
	return err
}
