package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"regimath/backend/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher sends events keyed by routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, Envelope) error { return nil }
func (Nop) Close() error                                     { return nil }

// AMQPPublisher publishes persistent JSON messages to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
}

// NewAMQPPublisher dials url and declares exchange as a durable topic
// exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	publishing, err := newPublishing(msg)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(ctx, p.exchange, key, false, false, publishing); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	l := logger.Ctx(ctx)
	l.Debug().Str("key", key).Str("exchange", p.exchange).Str("event_id", msg.Meta.ID).Msg("event published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

func newPublishing(msg Envelope) (amqp091.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("encode event %s: %w", msg.Meta.Type, err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.Meta.ID,
		Type:         msg.Meta.Type,
		AppId:        msg.Meta.Producer,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if msg.Meta.CorrelationID != nil {
		publishing.CorrelationId = *msg.Meta.CorrelationID
	}
	return publishing, nil
}
