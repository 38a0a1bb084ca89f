// Package mcp exposes the helpdesk chatbot and workflow engine as MCP
// tools so AI assistants can answer support questions and drive ticket
// workflows.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brus83/proactive-it-support-hub-sub001/internal/services"
)

type Server struct {
	mcpServer *server.MCPServer
	engine    *services.WorkflowEngine
	chatbot   *services.ChatbotService
}

func NewServer(engine *services.WorkflowEngine, chatbot *services.ChatbotService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Support Hub",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		engine:  engine,
		chatbot: chatbot,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"ask_helpdesk",
			mcp.WithDescription("Answer a support question from the helpdesk knowledge base"),
			mcp.WithString("question", mcp.Required(), mcp.Description("The user's question")),
		),
		s.handleAsk,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_ticket_workflow",
			mcp.WithDescription("Fetch a ticket's workflow execution with its step progress"),
			mcp.WithString("ticket_id", mcp.Required(), mcp.Description("The ticket identifier")),
		),
		s.handleGetTicketWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"advance_ticket_workflow",
			mcp.WithDescription("Advance a workflow execution one step forward"),
			mcp.WithString("execution_id", mcp.Required(), mcp.Description("The execution identifier")),
			mcp.WithString("notes", mcp.Description("Optional notes for the audit trail")),
		),
		s.handleAdvance,
	)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	question, ok := args["question"].(string)
	if !ok || question == "" {
		return mcp.NewToolResultError("Missing required parameter: question"), nil
	}

	match, err := s.chatbot.Respond(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to answer: %v", err)), nil
	}
	if match == nil {
		return mcp.NewToolResultText("No answer found in the knowledge base"), nil
	}
	return mcp.NewToolResultText(match.Answer), nil
}

func (s *Server) handleGetTicketWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	ticketID, ok := args["ticket_id"].(string)
	if !ok || ticketID == "" {
		return mcp.NewToolResultError("Missing required parameter: ticket_id"), nil
	}

	execution, err := s.engine.FetchExecution(ctx, ticketID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch execution: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(execution)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	executionID, ok := args["execution_id"].(string)
	if !ok || executionID == "" {
		return mcp.NewToolResultError("Missing required parameter: execution_id"), nil
	}
	notes, _ := args["notes"].(string)

	if err := s.engine.Advance(ctx, executionID, notes); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to advance: %v", err)), nil
	}
	return mcp.NewToolResultText("Execution advanced"), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
