package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/JakeFAU/pickup-checker/internal/pickup"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 9, 20, 18, 30, 0, 0, time.UTC)

func TestPubSubSend(t *testing.T) {
	t.Parallel()

	var published *pubsub.Message
	ps := &PubSub{
		publish: func(_ context.Context, msg *pubsub.Message) (string, error) {
			published = msg
			return "msg-1", nil
		},
		now: func() time.Time { return fixedNow },
	}

	ctx := pickup.WithRunID(context.Background(), "run-7")
	require.NoError(t, ps.Send(ctx, "hit"))
	require.NotNil(t, published)
	assert.Equal(t, "run-7", published.Attributes["run_id"])

	var ev Event
	require.NoError(t, json.Unmarshal(published.Data, &ev))
	assert.Equal(t, Event{RunID: "run-7", Text: "hit", SentAt: fixedNow}, ev)
	assert.NoError(t, ps.Close())
}

func TestPubSubPublishError(t *testing.T) {
	t.Parallel()

	boom := errors.New("deadline exceeded")
	ps := &PubSub{
		publish: func(context.Context, *pubsub.Message) (string, error) { return "", boom },
		now:     time.Now,
	}
	err := ps.Send(context.Background(), "hit")
	require.ErrorIs(t, err, boom)
}

type fakeChannel struct {
	declared   []string
	durable    bool
	declareErr error
	publishErr error
	key        string
	msg        amqp.Publishing
	deadline   bool
	closed     bool
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.declared = append(c.declared, name)
	c.durable = durable
	return amqp.Queue{Name: name}, c.declareErr
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	_, c.deadline = ctx.Deadline()
	c.key = key
	c.msg = msg
	return c.publishErr
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPSend(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	a, err := newAMQP(ch, "pickup.hits")
	require.NoError(t, err)
	a.now = func() time.Time { return fixedNow }
	assert.Equal(t, []string{"pickup.hits"}, ch.declared)
	assert.True(t, ch.durable)

	require.NoError(t, a.Send(pickup.WithRunID(context.Background(), "run-9"), "hit"))
	assert.Equal(t, "pickup.hits", ch.key)
	assert.True(t, ch.deadline)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var ev Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &ev))
	assert.Equal(t, "run-9", ev.RunID)
	assert.Equal(t, "hit", ev.Text)

	require.NoError(t, a.Close())
	assert.True(t, ch.closed)
}

func TestAMQPErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("channel closed")
	_, err := newAMQP(&fakeChannel{declareErr: boom}, "q")
	require.ErrorIs(t, err, boom)

	a, err := newAMQP(&fakeChannel{publishErr: boom}, "q")
	require.NoError(t, err)
	require.ErrorIs(t, a.Send(context.Background(), "hit"), boom)
}
