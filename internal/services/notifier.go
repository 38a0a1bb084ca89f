package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// NotificationCategory selects the mail template. Categories affect
// presentation only; the dispatcher behaves identically for all of them.
type NotificationCategory string

const (
	CategoryNewTicket  NotificationCategory = "new_ticket"
	CategoryEscalation NotificationCategory = "escalation"
	CategoryDeadline   NotificationCategory = "deadline"
	CategoryReminder   NotificationCategory = "reminder"
)

// Notifier is the outbound email dispatcher. Sends are fire-and-forget
// from the caller's perspective: a failed send never fails the operation
// that triggered it.
type Notifier interface {
	Send(ctx context.Context, to, subject string, category NotificationCategory, bodyHTML string) error
}

// HTTPNotifier posts notification requests to the hosted mail function.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

// NewHTTPNotifier creates a new HTTPNotifier targeting the given base URL.
func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{url: url, client: http.DefaultClient}
}

// Send submits one templated email to the dispatcher.
func (c *HTTPNotifier) Send(ctx context.Context, to, subject string, category NotificationCategory, bodyHTML string) error {
	requestBody, err := json.Marshal(map[string]string{
		"to":       to,
		"subject":  subject,
		"category": string(category),
		"html":     bodyHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/send", bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach notification dispatcher: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification dispatcher returned status %d", resp.StatusCode)
	}
	return nil
}
