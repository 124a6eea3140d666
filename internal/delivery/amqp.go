package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/enums"
)

// AMQPNotifier publishes persistent JSON messages to a durable RabbitMQ queue.
// It dials once per event.
type AMQPNotifier struct {
	url   string
	queue string
	dial  func(url string) (amqpConnection, error)
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	Close() error
}

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpConnAdapter struct{ *amqp.Connection }

func (a amqpConnAdapter) Channel() (amqpChannel, error) {
	ch, err := a.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnAdapter{conn}, nil
}

// NewAMQPNotifier returns nil when no broker URL is configured.
func NewAMQPNotifier(cfg config.AMQPConfig) *AMQPNotifier {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil
	}
	return &AMQPNotifier{url: cfg.URL, queue: cfg.Queue, dial: dialAMQP}
}

func (a *AMQPNotifier) Channel() enums.DeliveryChannel {
	return enums.DeliveryChannelAMQP
}

func (a *AMQPNotifier) Notify(ctx context.Context, event Event) error {
	conn, err := a.dial(a.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(a.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return ch.PublishWithContext(ctx, "", a.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}
