package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// WebhookNotifier implements Notifier via a Slack incoming webhook. The
// webhook is bound to a channel when it is created; Message.Channel is
// passed along as an override for legacy webhooks that honor it.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(webhookURL string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		w.client = c
	}
}

// Send posts msg to the webhook.
func (w *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	err := slack.PostWebhookCustomHTTPContext(ctx, w.webhookURL, w.client, &slack.WebhookMessage{
		Channel: msg.Channel,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("sending slack webhook: %w", err)
	}
	return nil
}
