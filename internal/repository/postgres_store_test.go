package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestPostgresStores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatal(err)
	}

	workflows := NewPostgresWorkflowStore(pool)
	executions := NewPostgresExecutionStore(pool)
	logs := NewPostgresLogStore(pool)
	rules := NewPostgresRuleStore(pool)

	workflow := &models.Workflow{
		Name:       "Hardware request",
		CategoryID: strPtr("hardware"),
		IsActive:   true,
		Steps: []models.WorkflowStep{
			{Name: "Triage", Kind: models.StepKindAuto},
			{Name: "Assign technician", Kind: models.StepKindManual, Role: strPtr("technician")},
			{Name: "Manager approval", Kind: models.StepKindApproval, Role: strPtr("manager")},
		},
	}

	t.Run("workflow create rejects empty steps", func(t *testing.T) {
		err := workflows.Create(ctx, &models.Workflow{Name: "Empty", IsActive: true})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("workflow create and get", func(t *testing.T) {
		require.NoError(t, workflows.Create(ctx, workflow))

		got, err := workflows.Get(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.Name, got.Name)
		require.Len(t, got.Steps, 3)
		assert.Equal(t, "Triage", got.Steps[0].Name)
		assert.Equal(t, models.StepKindApproval, got.Steps[2].Kind)
		require.NotNil(t, got.Steps[1].Role)
		assert.Equal(t, "technician", *got.Steps[1].Role)
	})

	t.Run("workflow category resolution", func(t *testing.T) {
		got, err := workflows.GetActiveByCategory(ctx, "hardware")
		require.NoError(t, err)
		assert.Equal(t, workflow.ID, got.ID)
		assert.Len(t, got.Steps, 3)

		_, err = workflows.GetActiveByCategory(ctx, "network")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("execution create and fetch by ticket", func(t *testing.T) {
		execution := &models.WorkflowExecution{
			WorkflowID: workflow.ID,
			TicketID:   "T1",
			Status:     models.ExecutionStatusPending,
			Data:       map[string]string{"requester_email": "alice@example.com"},
		}
		require.NoError(t, executions.Create(ctx, execution))

		got, err := executions.GetByTicket(ctx, "T1")
		require.NoError(t, err)
		assert.Equal(t, execution.ID, got.ID)
		assert.Equal(t, 0, got.CurrentStep)
		assert.Equal(t, models.ExecutionStatusPending, got.Status)
		assert.Equal(t, "alice@example.com", got.Data["requester_email"])
		require.NotNil(t, got.Workflow)
		assert.Len(t, got.Workflow.Steps, 3)
	})

	t.Run("execution create rejects dangling workflow", func(t *testing.T) {
		err := executions.Create(ctx, &models.WorkflowExecution{
			WorkflowID: "00000000-0000-0000-0000-000000000000",
			TicketID:   "T-dangling",
			Status:     models.ExecutionStatusPending,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("advance compare-and-swap", func(t *testing.T) {
		execution, err := executions.GetByTicket(ctx, "T1")
		require.NoError(t, err)

		require.NoError(t, executions.AdvanceStep(ctx, execution.ID, 0, 1, models.ExecutionStatusInProgress))

		// A second writer that also read step 0 loses.
		err = executions.AdvanceStep(ctx, execution.ID, 0, 1, models.ExecutionStatusInProgress)
		assert.ErrorIs(t, err, ErrConflict)

		got, err := executions.Get(ctx, execution.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentStep)
		assert.Equal(t, models.ExecutionStatusInProgress, got.Status)
	})

	t.Run("advance rejected on terminal state", func(t *testing.T) {
		execution := &models.WorkflowExecution{
			WorkflowID: workflow.ID,
			TicketID:   "T2",
			Status:     models.ExecutionStatusPending,
		}
		require.NoError(t, executions.Create(ctx, execution))
		require.NoError(t, executions.Cancel(ctx, execution.ID))

		err := executions.AdvanceStep(ctx, execution.ID, 0, 1, models.ExecutionStatusInProgress)
		assert.ErrorIs(t, err, ErrConflict)

		err = executions.Cancel(ctx, execution.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("ticket with two executions is not found", func(t *testing.T) {
		first := &models.WorkflowExecution{WorkflowID: workflow.ID, TicketID: "T3", Status: models.ExecutionStatusPending}
		second := &models.WorkflowExecution{WorkflowID: workflow.ID, TicketID: "T3", Status: models.ExecutionStatusPending}
		require.NoError(t, executions.Create(ctx, first))
		require.NoError(t, executions.Create(ctx, second))

		_, err := executions.GetByTicket(ctx, "T3")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("log append and list", func(t *testing.T) {
		execution, err := executions.GetByTicket(ctx, "T1")
		require.NoError(t, err)

		entry := &models.WorkflowLog{
			ExecutionID: execution.ID,
			StepNumber:  0,
			Action:      models.ActionStepCompleted,
			Notes:       "Completed step: Triage",
		}
		require.NoError(t, logs.Append(ctx, entry))

		entries, err := logs.ListByExecution(ctx, execution.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 0, entries[0].StepNumber)
		assert.Equal(t, models.ActionStepCompleted, entries[0].Action)
	})

	t.Run("chatbot rules keep insertion order", func(t *testing.T) {
		first := &models.ChatbotRule{Question: "Q1", Keywords: []string{"password"}, Answer: "A1", IsActive: true}
		second := &models.ChatbotRule{Question: "Q2", Keywords: []string{"password"}, Answer: "A2", IsActive: true}
		hidden := &models.ChatbotRule{Question: "Q3", Keywords: []string{"vpn"}, Answer: "A3", IsActive: false}
		require.NoError(t, rules.SeedChatbotRule(ctx, first))
		require.NoError(t, rules.SeedChatbotRule(ctx, second))
		require.NoError(t, rules.SeedChatbotRule(ctx, hidden))

		listed, err := rules.ListChatbotRules(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "Q1", listed[0].Question)
		assert.Equal(t, "Q2", listed[1].Question)

		require.NoError(t, rules.IncrementUsage(ctx, first.ID))
		listed, err = rules.ListChatbotRules(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, listed[0].UsageCount)
	})

	t.Run("auto responses sorted by priority", func(t *testing.T) {
		low := &models.AutoResponseRule{Name: "low", Keywords: []string{"k"}, Priority: 5, Body: "b", IsActive: true}
		high := &models.AutoResponseRule{Name: "high", Keywords: []string{"k"}, Priority: 1, Body: "b", IsActive: true}
		require.NoError(t, rules.SeedAutoResponse(ctx, low))
		require.NoError(t, rules.SeedAutoResponse(ctx, high))

		listed, err := rules.ListAutoResponses(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "high", listed[0].Name)
		assert.Equal(t, "low", listed[1].Name)
	})

	t.Run("deactivate removes from listing and lookup", func(t *testing.T) {
		require.NoError(t, workflows.Deactivate(ctx, workflow.ID))

		_, err := workflows.GetActiveByCategory(ctx, "hardware")
		assert.ErrorIs(t, err, ErrNotFound)

		listed, err := workflows.List(ctx)
		require.NoError(t, err)
		for _, w := range listed {
			assert.NotEqual(t, workflow.ID, w.ID)
		}

		// Existing executions still resolve their definition.
		got, err := executions.GetByTicket(ctx, "T1")
		require.NoError(t, err)
		require.NotNil(t, got.Workflow)
		assert.False(t, got.Workflow.IsActive)
	})
}
