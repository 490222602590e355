package registration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-session-auth/auth"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the notifier uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ auth.Notifier = (*AMQPNotifier)(nil)

// AMQPNotifier publishes registrations to a durable queue as persistent JSON messages.
type AMQPNotifier struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
}

// DialAMQP connects to the broker, opens a channel and declares queue.
func DialAMQP(url, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("[registration.DialAMQP] %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("[registration.DialAMQP] open channel: %w", err)
	}
	n, err := NewAMQPNotifier(ch, queue)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// NewAMQPNotifier declares queue on ch and publishes to it.
func NewAMQPNotifier(ch Channel, queue string) (*AMQPNotifier, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("[registration.NewAMQPNotifier] declare %s: %w", queue, err)
	}
	return &AMQPNotifier{ch: ch, queue: queue}, nil
}

func (n *AMQPNotifier) NotifyRegistration(ctx context.Context, r auth.Registration) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("[AMQPNotifier.NotifyRegistration] %w", err)
	}
	err = n.ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    r.AuthUserID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("[AMQPNotifier.NotifyRegistration] %w", err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		return err
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
