package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config selects and configures senders. Empty fields disable a sender.
type Config struct {
	Timeout time.Duration

	SlackWebhookURL  string
	WeChatWebhookURL string

	TelegramAPIBase string
	TelegramToken   string
	TelegramChatID  string

	PubSubProjectID string
	PubSubTopicID   string

	AMQPURL   string
	AMQPQueue string
}

// Build returns a Notifier with every configured sender. A sender that
// fails to connect is logged and left out.
func Build(ctx context.Context, cfg Config, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := NewHTTPClient(cfg.Timeout)

	var senders []Sender
	if cfg.SlackWebhookURL != "" {
		senders = append(senders, NewWebhook(client, cfg.SlackWebhookURL))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, NewTelegram(client, cfg.TelegramAPIBase, cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.WeChatWebhookURL != "" {
		senders = append(senders, NewWeChat(client, cfg.WeChatWebhookURL))
	}
	if cfg.PubSubProjectID != "" && cfg.PubSubTopicID != "" {
		ps, err := NewPubSub(ctx, cfg.PubSubProjectID, cfg.PubSubTopicID)
		if err != nil {
			logger.Warn("pubsub sender disabled", zap.Error(err))
		} else {
			senders = append(senders, ps)
		}
	}
	if cfg.AMQPURL != "" && cfg.AMQPQueue != "" {
		a, err := DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("amqp sender disabled", zap.Error(err))
		} else {
			senders = append(senders, a)
		}
	}

	n := New(logger, senders...)
	logger.Debug("notifier ready", zap.Strings("senders", n.Senders()))
	return n
}
