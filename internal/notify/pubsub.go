package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

// PubSub publishes each message as a JSON Event to a Pub/Sub topic.
type PubSub struct {
	publish func(ctx context.Context, msg *pubsub.Message) (string, error)
	close   func() error
	now     func() time.Time
}

// NewPubSub connects to topicID in projectID.
func NewPubSub(ctx context.Context, projectID, topicID string) (*PubSub, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	return &PubSub{
		publish: func(ctx context.Context, msg *pubsub.Message) (string, error) {
			return topic.Publish(ctx, msg).Get(ctx)
		},
		close: func() error {
			topic.Stop()
			return client.Close()
		},
		now: time.Now,
	}, nil
}

// Name implements Sender.
func (p *PubSub) Name() string { return "pubsub" }

// Send implements Sender and waits for the server to acknowledge.
func (p *PubSub) Send(ctx context.Context, text string) error {
	ev := newEvent(ctx, text, p.now())
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("pubsub: marshal event: %w", err)
	}
	msg := &pubsub.Message{Data: data}
	if ev.RunID != "" {
		msg.Attributes = map[string]string{"run_id": ev.RunID}
	}
	if _, err := p.publish(ctx, msg); err != nil {
		return fmt.Errorf("pubsub: publish: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSub) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}
