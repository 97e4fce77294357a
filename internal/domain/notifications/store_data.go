package notifications

import (
	"context"
	"time"

	"planivo/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type Row struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staffId"`
	PlanID    string    `json:"planId"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Store) CreateNotification(ctx context.Context, staffID, planID, status, message string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (staff_id, plan_id, status, message)
    VALUES ($1,$2,$3,$4)
  `, staffID, planID, status, message)
	return err
}

func (s *Store) StaffEmail(ctx context.Context, staffID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, `
    SELECT email FROM staff WHERE id = $1
  `, staffID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

func (s *Store) ListNotifications(ctx context.Context, staffID string, limit, offset int) ([]Row, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, staff_id, plan_id, status, message, read, created_at
    FROM notifications
    WHERE staff_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, staffID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.StaffID, &row.PlanID, &row.Status, &row.Message, &row.Read, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, staffID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read = true WHERE staff_id = $1 AND id = $2
  `, staffID, notificationID)
	return err
}
