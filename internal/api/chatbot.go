package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Matched bool   `json:"matched"`
	RuleID  string `json:"rule_id,omitempty"`
	Answer  string `json:"answer"`
}

const fallbackAnswer = "Sorry, I don't have an answer for that yet. A support agent will follow up on your ticket."

// AskChatbot answers a free-text question from the chatbot rule base.
// (POST /api/v1/chatbot/ask)
func (s *Server) AskChatbot(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	match, err := s.Chatbot.Respond(c.Request().Context(), req.Question)
	if err != nil {
		return httpError(err)
	}
	if match == nil {
		return c.JSON(http.StatusOK, askResponse{Matched: false, Answer: fallbackAnswer})
	}
	return c.JSON(http.StatusOK, askResponse{Matched: true, RuleID: match.ID, Answer: match.Answer})
}

type autoResponseRequest struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

type autoResponseReply struct {
	Matched bool   `json:"matched"`
	RuleID  string `json:"rule_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Body    string `json:"body,omitempty"`
}

// MatchAutoResponse returns the canned reply triggered by a new ticket's
// text and category, if any.
// (POST /api/v1/auto-responses/match)
func (s *Server) MatchAutoResponse(c echo.Context) error {
	var req autoResponseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	rule, err := s.Responder.Trigger(c.Request().Context(), req.Text, req.Category)
	if err != nil {
		return httpError(err)
	}
	if rule == nil {
		return c.JSON(http.StatusOK, autoResponseReply{Matched: false})
	}
	return c.JSON(http.StatusOK, autoResponseReply{Matched: true, RuleID: rule.ID, Name: rule.Name, Body: rule.Body})
}
