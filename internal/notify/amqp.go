package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const amqpPublishTimeout = 3 * time.Second

// amqpChannel is the subset of *amqp.Channel the sender uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes each message as a persistent JSON Event to a queue.
type AMQP struct {
	ch    amqpChannel
	conn  *amqp.Connection
	queue string
	now   func() time.Time
}

// DialAMQP connects to url and declares queue.
func DialAMQP(url, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	a, err := newAMQP(ch, queue)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.conn = conn
	return a, nil
}

func newAMQP(ch amqpChannel, queue string) (*AMQP, error) {
	// Declare up front so publishing never fails on missing infrastructure.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}
	return &AMQP{ch: ch, queue: queue, now: time.Now}, nil
}

// Name implements Sender.
func (a *AMQP) Name() string { return "amqp" }

// Send implements Sender.
func (a *AMQP) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(newEvent(ctx, text, a.now()))
	if err != nil {
		return fmt.Errorf("amqp: marshal event: %w", err)
	}
	pubCtx, cancel := context.WithTimeout(ctx, amqpPublishTimeout)
	defer cancel()

	err = a.ch.PublishWithContext(pubCtx,
		"",      // default exchange
		a.queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    a.now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp: publish: %w", err)
	}
	return nil
}

// Close closes the channel and, when dialed here, the connection.
func (a *AMQP) Close() error {
	err := a.ch.Close()
	if a.conn != nil {
		err = errors.Join(err, a.conn.Close())
	}
	return err
}
