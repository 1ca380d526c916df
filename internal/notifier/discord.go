package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Notifier delivers alerts and status summaries to the operator.
type Notifier interface {
	Notify(ctx context.Context, content string, urgent bool, label string) error
}

// DiscordNotifier sends messages via a Discord webhook. Urgent messages get
// an @everyone ping and a siren prefix; routine ones an info prefix.
type DiscordNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewDiscordNotifier creates a webhook notifier.
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Notify posts one message. Delivery failures are returned for logging but
// never retried: a missed notification must not stall the trading loop.
func (d *DiscordNotifier) Notify(ctx context.Context, content string, urgent bool, label string) error {
	var text string
	if urgent {
		text = fmt.Sprintf("🚨 URGENT [%s]: @everyone %s", label, content)
	} else {
		text = fmt.Sprintf("ℹ️ [%s]: %s", label, content)
	}

	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord webhook: status %d, body: %s", resp.StatusCode, string(body))
	}

	log.Printf("[INFO] notification sent (urgent=%v, label=%s)", urgent, label)
	return nil
}
