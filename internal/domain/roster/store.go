package roster

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

// ShiftsFor returns the staff member's shift assignments falling on any day
// within the inclusive date range.
func (s *Store) ShiftsFor(ctx context.Context, staffID string, from, to time.Time) ([]Shift, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, staff_id, shift_date, shift_name
    FROM shift_assignments
    WHERE staff_id = $1 AND shift_date >= $2 AND shift_date <= $3
    ORDER BY shift_date, shift_name
  `, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []Shift
	for rows.Next() {
		var sh Shift
		if err := rows.Scan(&sh.ID, &sh.StaffID, &sh.Date, &sh.ShiftName); err != nil {
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// EventsFor returns scheduled events whose datetime window intersects the
// inclusive date range. The range end is extended to end-of-day so an event
// starting that evening still counts.
func (s *Store) EventsFor(ctx context.Context, staffID string, from, to time.Time) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT ea.id, ea.staff_id, se.name, se.starts_at, se.ends_at, se.location
    FROM event_assignments ea
    JOIN scheduled_events se ON se.id = ea.event_id
    WHERE ea.staff_id = $1 AND se.starts_at <= $3 AND se.ends_at >= $2
    ORDER BY se.starts_at, se.name
  `, staffID, from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.StaffID, &ev.Name, &ev.StartsAt, &ev.EndsAt, &ev.Location); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
