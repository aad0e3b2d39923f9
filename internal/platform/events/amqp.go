package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes envelopes to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish wraps data in an Envelope and sends it with routing key key.
func (p *AMQPPublisher) Publish(ctx context.Context, key string, data any) error {
	env := NewEnvelope(key, data)
	msg, err := encode(env)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func encode(env Envelope) (amqp.Publishing, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s event: %w", env.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID.String(),
		Timestamp:    env.OccurredAt,
		Type:         env.Type,
		Body:         b,
	}, nil
}
