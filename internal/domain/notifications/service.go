package notifications

import (
	"context"
	"log/slog"

	"planivo/internal/domain/vacation"
)

// MailMessage is the payload published to the mail queue; the notifier worker
// consumes it and performs the actual SMTP delivery.
type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Queue interface {
	Publish(ctx context.Context, msg MailMessage) error
}

type Service struct {
	store *Store
	queue Queue
}

func New(store *Store, queue Queue) *Service {
	return &Service{store: store, queue: queue}
}

// Notify implements the core's notification sink. Delivery is fire and
// forget: failures are logged and never fail the decision that triggered
// them.
func (s *Service) Notify(ctx context.Context, n vacation.Notification) {
	if err := s.store.CreateNotification(ctx, n.StaffID, n.PlanID, n.NewStatus, n.Message); err != nil {
		slog.Warn("notification persist failed", "planId", n.PlanID, "err", err)
		return
	}

	if s.queue == nil {
		return
	}
	email, err := s.store.StaffEmail(ctx, n.StaffID)
	if err != nil || email == "" {
		if err != nil {
			slog.Warn("notification email lookup failed", "staffId", n.StaffID, "err", err)
		}
		return
	}
	msg := MailMessage{
		To:      email,
		Subject: "Leave request " + n.NewStatus,
		Body:    n.Message,
	}
	if err := s.queue.Publish(ctx, msg); err != nil {
		slog.Warn("notification publish failed", "planId", n.PlanID, "err", err)
	}
}

func (s *Service) List(ctx context.Context, staffID string, limit, offset int) ([]Row, error) {
	return s.store.ListNotifications(ctx, staffID, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, staffID, notificationID string) error {
	return s.store.MarkRead(ctx, staffID, notificationID)
}
