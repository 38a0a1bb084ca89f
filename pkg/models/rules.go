package models

import "time"

// ChatbotRule is a candidate answer for the helpdesk chatbot. Rules are
// scored against the user's question; the best-scoring active rule wins.
type ChatbotRule struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"` // reference phrase the rule answers
	Keywords   []string  `json:"keywords"`
	Category   *string   `json:"category,omitempty"`
	Answer     string    `json:"answer"`
	IsActive   bool      `json:"is_active"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// AutoResponseRule triggers a canned reply on new tickets. Unlike chatbot
// rules these are evaluated in ascending priority order and the first hit
// wins; there is no scoring.
type AutoResponseRule struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Keywords          []string  `json:"keywords"`
	TriggerCategories []string  `json:"trigger_categories,omitempty"`
	Priority          int       `json:"priority"`
	Body              string    `json:"body"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}
