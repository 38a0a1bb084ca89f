package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// CreateWorkflow creates a workflow definition with its step sequence.
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var workflow models.Workflow
	if err := c.Bind(&workflow); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	workflow.IsActive = true

	if err := s.Engine.CreateWorkflowDefinition(ctx, &workflow); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, workflow)
}

// ListWorkflows returns all active workflows.
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	workflows, err := s.Engine.ListWorkflows(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, workflows)
}

// ResolveWorkflow returns the active workflow bound to a ticket category.
// (GET /api/v1/workflows/category/:categoryID)
func (s *Server) ResolveWorkflow(c echo.Context) error {
	workflow, err := s.Engine.ResolveWorkflowForCategory(c.Request().Context(), c.Param("categoryID"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, workflow)
}

type startExecutionRequest struct {
	WorkflowID string            `json:"workflow_id"`
	TicketID   string            `json:"ticket_id"`
	Data       map[string]string `json:"data,omitempty"`
}

// StartExecution enters a ticket into a workflow.
// (POST /api/v1/executions)
func (s *Server) StartExecution(c echo.Context) error {
	var req startExecutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.WorkflowID == "" || req.TicketID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workflow_id and ticket_id are required")
	}

	id, err := s.Engine.StartExecution(c.Request().Context(), req.WorkflowID, req.TicketID, req.Data)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"execution_id": id})
}

type advanceRequest struct {
	Notes string `json:"notes,omitempty"`
}

// AdvanceExecution moves an execution one step forward.
// (POST /api/v1/executions/:id/advance)
func (s *Server) AdvanceExecution(c echo.Context) error {
	var req advanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if err := s.Engine.Advance(c.Request().Context(), c.Param("id"), req.Notes); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelExecution forces a non-terminal execution to cancelled.
// (POST /api/v1/executions/:id/cancel)
func (s *Server) CancelExecution(c echo.Context) error {
	if err := s.Engine.CancelExecution(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExecutionLogs returns the audit trail for an execution, oldest first.
// (GET /api/v1/executions/:id/logs)
func (s *Server) ExecutionLogs(c echo.Context) error {
	entries, err := s.Engine.Logs(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// FetchExecution returns the ticket's execution with its workflow joined.
// (GET /api/v1/tickets/:ticketID/execution)
func (s *Server) FetchExecution(c echo.Context) error {
	execution, err := s.Engine.FetchExecution(c.Request().Context(), c.Param("ticketID"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, execution)
}
