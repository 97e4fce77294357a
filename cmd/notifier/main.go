package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"planivo/internal/domain/notifications"
	"planivo/internal/platform/config"
	"planivo/internal/platform/email"
)

// The notifier drains the mail queue and delivers each message over SMTP.
// Failed deliveries are requeued once; a second failure drops the message so
// a dead address cannot wedge the queue.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}
	if cfg.SMTPHost == "" {
		slog.Error("SMTP_HOST is required for the notifier")
		os.Exit(1)
	}

	sender, err := email.New(cfg)
	if err != nil {
		slog.Error("failed to build smtp client", "err", err)
		os.Exit(1)
	}
	defer sender.Close()

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		slog.Error("failed to connect to broker", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		slog.Error("failed to open channel", "err", err)
		os.Exit(1)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.MailQueue, true, false, false, false, nil); err != nil {
		slog.Error("failed to declare queue", "queue", cfg.MailQueue, "err", err)
		os.Exit(1)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		slog.Error("failed to set prefetch", "err", err)
		os.Exit(1)
	}

	deliveries, err := ch.Consume(cfg.MailQueue, "", false, false, false, false, nil)
	if err != nil {
		slog.Error("failed to start consumer", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("notifier consuming", "queue", cfg.MailQueue)
	for {
		select {
		case <-ctx.Done():
			slog.Info("notifier shutting down")
			return
		case delivery, ok := <-deliveries:
			if !ok {
				slog.Error("delivery channel closed")
				return
			}
			handle(ctx, sender, delivery)
		}
	}
}

func handle(ctx context.Context, sender *email.Sender, delivery amqp.Delivery) {
	var msg notifications.MailMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		slog.Warn("dropping malformed message", "err", err)
		_ = delivery.Nack(false, false)
		return
	}

	if err := sender.Send(ctx, msg.To, msg.Subject, msg.Body); err != nil {
		slog.Warn("delivery failed", "to", msg.To, "redelivered", delivery.Redelivered, "err", err)
		_ = delivery.Nack(false, !delivery.Redelivered)
		return
	}
	_ = delivery.Ack(false)
}
