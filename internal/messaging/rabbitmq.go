// Package messaging publishes change events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/dukerupert/casa/internal/config"
	"github.com/dukerupert/casa/internal/events"
)

const publishTimeout = 5 * time.Second

// Publisher sends every change to a durable queue. It implements
// events.Notifier; publish failures are logged, never returned to the
// request that caused the change.
type Publisher struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
	cb        *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

func NewPublisher(amqpURL, queueName string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	return &Publisher{
		conn:      conn,
		ch:        ch,
		queueName: queueName,
		cb:        config.NewCircuitBreaker("amqp-publisher", nil),
		logger:    logger,
	}, nil
}

// Notify implements events.Notifier.
func (p *Publisher) Notify(ctx context.Context, c events.Change) {
	if err := p.Publish(ctx, c); err != nil {
		p.logger.Error("publish change", "type", c.Type(), "id", c.ID, "error", err)
	}
}

// Publish sends one change to the queue.
func (p *Publisher) Publish(ctx context.Context, c events.Change) error {
	msg, err := encodeChange(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	_, err = p.cb.Execute(func() (any, error) {
		return nil, p.ch.PublishWithContext(
			ctx,
			"",          // default exchange
			p.queueName, // routing key == queue name
			false,       // mandatory
			false,       // immediate
			msg,
		)
	})
	return err
}

func encodeChange(c events.Change) (amqp.Publishing, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode change: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         c.Type(),
		MessageId:    c.ID,
		Timestamp:    c.At,
		Body:         body,
	}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
