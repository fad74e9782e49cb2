package notify

import (
	"context"

	"github.com/go-resty/resty/v2"
)

// Webhook posts {"text": ...} to a Slack compatible incoming webhook.
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook returns a Webhook sender for url.
func NewWebhook(client *resty.Client, url string) *Webhook {
	return &Webhook{client: client, url: url}
}

// Name implements Sender.
func (w *Webhook) Name() string { return "slack" }

// Send implements Sender.
func (w *Webhook) Send(ctx context.Context, text string) error {
	res, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": text}).
		Post(w.url)
	return checkResponse(w.Name(), res, err, w.url)
}
