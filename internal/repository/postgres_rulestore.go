package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

// PostgresRuleStore is the PostgreSQL implementation of RuleStore.
type PostgresRuleStore struct {
	db *pgxpool.Pool
}

// NewPostgresRuleStore creates a new PostgresRuleStore.
func NewPostgresRuleStore(db *pgxpool.Pool) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

// ListChatbotRules returns active rules in insertion order. The order is
// load-bearing: equal chatbot scores resolve to the earliest rule.
func (s *PostgresRuleStore) ListChatbotRules(ctx context.Context) ([]*models.ChatbotRule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, question, keywords, category, answer, is_active, usage_count, created_at
		 FROM chatbot_rules WHERE is_active ORDER BY created_at, id`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var rules []*models.ChatbotRule
	for rows.Next() {
		var r models.ChatbotRule
		if err := rows.Scan(&r.ID, &r.Question, &r.Keywords, &r.Category, &r.Answer, &r.IsActive, &r.UsageCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}

// IncrementUsage bumps a chatbot rule's usage counter by one.
func (s *PostgresRuleStore) IncrementUsage(ctx context.Context, ruleID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE chatbot_rules SET usage_count = usage_count + 1 WHERE id = $1`, ruleID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chatbot rule %s: %w", ruleID, ErrNotFound)
	}
	return nil
}

// ListAutoResponses returns active rules sorted by ascending priority, the
// evaluation order of the first-match strategy.
func (s *PostgresRuleStore) ListAutoResponses(ctx context.Context) ([]*models.AutoResponseRule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, keywords, trigger_categories, priority, body, is_active, created_at
		 FROM auto_response_rules WHERE is_active ORDER BY priority, created_at`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var rules []*models.AutoResponseRule
	for rows.Next() {
		var r models.AutoResponseRule
		if err := rows.Scan(&r.ID, &r.Name, &r.Keywords, &r.TriggerCategories, &r.Priority, &r.Body, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}

// SeedChatbotRule inserts a chatbot rule; used by the seed command.
func (s *PostgresRuleStore) SeedChatbotRule(ctx context.Context, rule *models.ChatbotRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx,
		`INSERT INTO chatbot_rules (id, question, keywords, category, answer, is_active, usage_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rule.ID, rule.Question, rule.Keywords, rule.Category, rule.Answer, rule.IsActive, rule.UsageCount, rule.CreatedAt)
	return mapPgError(err)
}

// SeedAutoResponse inserts an auto-response rule; used by the seed command.
func (s *PostgresRuleStore) SeedAutoResponse(ctx context.Context, rule *models.AutoResponseRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx,
		`INSERT INTO auto_response_rules (id, name, keywords, trigger_categories, priority, body, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rule.ID, rule.Name, rule.Keywords, rule.TriggerCategories, rule.Priority, rule.Body, rule.IsActive, rule.CreatedAt)
	return mapPgError(err)
}
