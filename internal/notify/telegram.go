package notify

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultTelegramAPI is the public Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	client  *resty.Client
	apiBase string
	token   string
	chatID  string
}

// NewTelegram returns a Telegram sender for the bot token and chat.
func NewTelegram(client *resty.Client, apiBase, token, chatID string) *Telegram {
	if apiBase == "" {
		apiBase = DefaultTelegramAPI
	}
	return &Telegram{
		client:  client,
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		chatID:  chatID,
	}
}

// Name implements Sender.
func (t *Telegram) Name() string { return "telegram" }

// Send implements Sender.
func (t *Telegram) Send(ctx context.Context, text string) error {
	res, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"chat_id": t.chatID,
			"text":    text,
		}).
		Get(t.apiBase + "/bot" + t.token + "/sendMessage")
	return checkResponse(t.Name(), res, err, t.token)
}
