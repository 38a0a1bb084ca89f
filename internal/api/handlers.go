// Package api contains the HTTP handlers for the support hub backend.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brus83/proactive-it-support-hub-sub001/internal/repository"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/services"
)

// Server holds the dependencies for the API server.
type Server struct {
	Engine    *services.WorkflowEngine
	Chatbot   *services.ChatbotService
	Responder *services.AutoResponder
}

// NewServer creates a new Server.
func NewServer(engine *services.WorkflowEngine, chatbot *services.ChatbotService, responder *services.AutoResponder) *Server {
	return &Server{Engine: engine, Chatbot: chatbot, Responder: responder}
}

// RegisterRoutes mounts all handlers on the given group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.POST("/workflows", s.CreateWorkflow)
	g.GET("/workflows", s.ListWorkflows)
	g.GET("/workflows/category/:categoryID", s.ResolveWorkflow)
	g.POST("/executions", s.StartExecution)
	g.POST("/executions/:id/advance", s.AdvanceExecution)
	g.POST("/executions/:id/cancel", s.CancelExecution)
	g.GET("/executions/:id/logs", s.ExecutionLogs)
	g.GET("/tickets/:ticketID/execution", s.FetchExecution)
	g.POST("/chatbot/ask", s.AskChatbot)
	g.POST("/auto-responses/match", s.MatchAutoResponse)
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK).
func HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "support-hub",
		Version:   "1.0.0",
	})
}

// httpError maps the repository/engine error taxonomy onto status codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrConflict), errors.Is(err, services.ErrExecutionFinished):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
