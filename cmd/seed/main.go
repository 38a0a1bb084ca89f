// Seeds the local database with the default IT-support workflow and a
// starter set of chatbot and auto-response rules.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brus83/proactive-it-support-hub-sub001/internal/config"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/logging"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/repository"
	"github.com/brus83/proactive-it-support-hub-sub001/pkg/models"
)

func strPtr(s string) *string { return &s }

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, repository.Schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	logger.Info("Schema applied")

	workflows := repository.NewPostgresWorkflowStore(pool)

	// Skip workflows that already exist to keep the seeder idempotent.
	existing, err := workflows.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list existing workflows: %v", err)
	}
	existingMap := make(map[string]bool)
	for _, w := range existing {
		existingMap[w.Name] = true
	}

	seedWorkflows := []*models.Workflow{
		{
			Name:        "Hardware request",
			CategoryID:  strPtr("hardware"),
			Description: "Routes hardware purchases through manager approval.",
			IsActive:    true,
			Steps: []models.WorkflowStep{
				{Name: "Triage", Kind: models.StepKindAuto, Description: "Categorize and prioritize the request."},
				{Name: "Assign technician", Kind: models.StepKindManual, Role: strPtr("technician")},
				{Name: "Manager approval", Kind: models.StepKindApproval, Role: strPtr("manager"), Description: "Budget sign-off."},
				{Name: "Fulfil and close", Kind: models.StepKindManual, Role: strPtr("technician")},
			},
		},
		{
			Name:        "Account access",
			CategoryID:  strPtr("access"),
			Description: "Password resets and permission changes.",
			IsActive:    true,
			Steps: []models.WorkflowStep{
				{Name: "Verify identity", Kind: models.StepKindManual, Role: strPtr("technician")},
				{Name: "Apply change", Kind: models.StepKindManual, Role: strPtr("technician")},
			},
		},
	}

	for _, w := range seedWorkflows {
		if existingMap[w.Name] {
			logger.WithField("name", w.Name).Info("Skipping existing workflow")
			continue
		}
		if err := workflows.Create(ctx, w); err != nil {
			log.Printf("Failed to create workflow %s: %v", w.Name, err)
		} else {
			logger.WithField("name", w.Name).WithField("id", w.ID).Info("Seeded workflow")
		}
	}

	rules := repository.NewPostgresRuleStore(pool)

	chatbotRules := []*models.ChatbotRule{
		{
			Question: "How do I reset my password?",
			Keywords: []string{"password", "reset"},
			Category: strPtr("access"),
			Answer:   "Open the login page and click 'Forgot password'. You will receive a reset link by email.",
			IsActive: true,
		},
		{
			Question: "How do I connect to the VPN?",
			Keywords: []string{"vpn", "remote", "connect"},
			Answer:   "Install the company VPN client and sign in with your domain account.",
			IsActive: true,
		},
		{
			Question: "My printer is not working",
			Keywords: []string{"printer", "print", "toner"},
			Category: strPtr("hardware"),
			Answer:   "Check the printer's display for errors and make sure it is on the office network. If the issue persists, a technician will assist.",
			IsActive: true,
		},
	}
	for _, r := range chatbotRules {
		if err := rules.SeedChatbotRule(ctx, r); err != nil {
			log.Printf("Failed to seed chatbot rule %q: %v", r.Question, err)
		}
	}

	autoResponses := []*models.AutoResponseRule{
		{
			Name:     "Password self-service",
			Keywords: []string{"password"},
			Priority: 1,
			Body:     "It looks like you have a password issue. Most password problems can be solved with the self-service reset at https://intranet/reset.",
			IsActive: true,
		},
		{
			Name:              "Hardware intake",
			Keywords:          []string{"laptop", "monitor", "keyboard"},
			TriggerCategories: []string{"hardware"},
			Priority:          2,
			Body:              "Thanks for your hardware request. It has been queued for technician review.",
			IsActive:          true,
		},
	}
	for _, r := range autoResponses {
		if err := rules.SeedAutoResponse(ctx, r); err != nil {
			log.Printf("Failed to seed auto-response %q: %v", r.Name, err)
		}
	}

	logger.Info("Seeding complete!")
}
