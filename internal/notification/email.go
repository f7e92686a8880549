package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmailNotifier delivers notifications through a transactional mail API
// (a Plunk/SendGrid style "POST /send" endpoint with bearer auth).
type EmailNotifier struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewEmailNotifier builds a mail-API backed notifier.
func NewEmailNotifier(baseURL, apiKey, from string) *EmailNotifier {
	return &EmailNotifier{
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type emailRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send posts the message to the mail API.
func (n *EmailNotifier) Send(ctx context.Context, message Message) error {
	if message.To == "" {
		return nil
	}

	payload, err := json.Marshal(emailRequest{
		To:      message.To,
		From:    n.from,
		Subject: message.Subject,
		Body:    message.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
