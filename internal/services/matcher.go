package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/brus83/proactive-it-support-hub-sub001/internal/repository"
	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// The two matchers are intentionally distinct strategies: the chatbot
// picks the best-scoring rule, the auto-responder short-circuits on the
// first priority-ordered hit. Do not unify them.

const (
	keywordScore  = 2
	containsScore = 3
)

// MatchChatbot scores the input against every active rule and returns the
// highest-scoring one, or nil when nothing scores above zero. Each keyword
// found as a case-insensitive substring adds 2; mutual containment between
// input and the rule's reference question adds 3. Ties resolve to the rule
// that comes first in the slice (the store returns insertion order).
func MatchChatbot(text string, rules []*models.ChatbotRule) *models.ChatbotRule {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" {
		return nil
	}

	var best *models.ChatbotRule
	bestScore := 0
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		score := 0
		for _, keyword := range rule.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(input, keyword) {
				score += keywordScore
			}
		}
		question := strings.ToLower(strings.TrimSpace(rule.Question))
		if question != "" && (strings.Contains(input, question) || strings.Contains(question, input)) {
			score += containsScore
		}
		if score > bestScore {
			best = rule
			bestScore = score
		}
	}
	return best
}

// FirstAutoResponse returns the first rule whose keyword set hits the text
// or whose trigger categories contain the ticket category. Rules must be
// pre-sorted by ascending priority (ListAutoResponses guarantees this);
// evaluation short-circuits on the first match, not the best one.
func FirstAutoResponse(text, category string, rules []*models.AutoResponseRule) *models.AutoResponseRule {
	input := strings.ToLower(text)
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		for _, keyword := range rule.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(input, keyword) {
				return rule
			}
		}
		if category != "" {
			for _, trigger := range rule.TriggerCategories {
				if trigger == category {
					return rule
				}
			}
		}
	}
	return nil
}

// ChatbotService answers helpdesk questions from the rule base and tracks
// rule usage.
type ChatbotService struct {
	rules repository.RuleStore
	log   *logrus.Logger
}

// NewChatbotService creates a new ChatbotService.
func NewChatbotService(rules repository.RuleStore, log *logrus.Logger) *ChatbotService {
	return &ChatbotService{rules: rules, log: log}
}

// Respond matches the question against the active rules. A hit increments
// the rule's usage counter as a side channel: the increment's failure is
// logged but never invalidates the returned match. No match returns
// (nil, nil).
func (s *ChatbotService) Respond(ctx context.Context, question string) (*models.ChatbotRule, error) {
	rules, err := s.rules.ListChatbotRules(ctx)
	if err != nil {
		return nil, err
	}
	match := MatchChatbot(question, rules)
	if match == nil {
		return nil, nil
	}
	if err := s.rules.IncrementUsage(ctx, match.ID); err != nil {
		s.log.WithError(err).WithField("rule_id", match.ID).Warn("usage counter increment failed")
	}
	return match, nil
}

// AutoResponder picks the canned reply for a new ticket, if any applies.
type AutoResponder struct {
	rules repository.RuleStore
}

// NewAutoResponder creates a new AutoResponder.
func NewAutoResponder(rules repository.RuleStore) *AutoResponder {
	return &AutoResponder{rules: rules}
}

// Trigger returns the first matching auto-response rule for the ticket
// text and category, or (nil, nil) when none applies.
func (s *AutoResponder) Trigger(ctx context.Context, text, category string) (*models.AutoResponseRule, error) {
	rules, err := s.rules.ListAutoResponses(ctx)
	if err != nil {
		return nil, err
	}
	return FirstAutoResponse(text, category, rules), nil
}
