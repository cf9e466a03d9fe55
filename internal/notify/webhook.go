package notify

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"
)

const webhookUserAgent = "github.com/notemark/clip-relay"

// WebhookNotifier posts notifications as JSON to a configured HTTP endpoint.
// Failures are logged, not returned: a dead webhook must never block a clip.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
}

// NewWebhookNotifier wires the endpoint; a nil client gets a 5s timeout default
func NewWebhookNotifier(endpoint string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookNotifier{endpoint: endpoint, client: client}
}

// Notify posts {title, message, timestamp} to the webhook
func (n *WebhookNotifier) Notify(ctx context.Context, title, message string) {
	payload := []byte(`{}`)
	payload, _ = sjson.SetBytes(payload, "title", title)
	payload, _ = sjson.SetBytes(payload, "message", message)
	payload, _ = sjson.SetBytes(payload, "timestamp", time.Now().UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		log.Warn().Err(err).Str("endpoint", n.endpoint).Msg("Failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", n.endpoint).Msg("Webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("endpoint", n.endpoint).
			Msg("Webhook rejected notification")
	}
}
