package mailqueue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"planivo/internal/domain/notifications"
	"planivo/internal/platform/config"
)

// Publisher pushes notification emails onto a durable AMQP queue; the
// notifier binary consumes them. A nil Publisher is a valid no-op sink for
// deployments without a broker.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	timeout time.Duration
}

func Connect(cfg config.Config) (*Publisher, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(cfg.MailQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{
		conn:    conn,
		channel: ch,
		queue:   cfg.MailQueue,
		timeout: time.Duration(cfg.PublishTimeout) * time.Second,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, msg notifications.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	_ = p.channel.Close()
	_ = p.conn.Close()
}
