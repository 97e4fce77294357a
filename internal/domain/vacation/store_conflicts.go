package vacation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// PeerCommittedSegments returns pending or approved segments of other staff
// in the department whose dates touch the given window. Ordering is fixed so
// conflict lists stay reproducible.
func (s *Store) PeerCommittedSegments(ctx context.Context, departmentID, excludeStaffID string, from, to time.Time) ([]CommittedSegment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, st.id, st.first_name || ' ' || st.last_name, seg.start_date, seg.end_date, seg.days
    FROM vacation_segments seg
    JOIN vacation_plans p ON p.id = seg.plan_id
    JOIN staff st ON st.id = p.staff_id
    WHERE p.department_id = $1
      AND p.staff_id <> $2
      AND p.status IN ($3, $4)
      AND seg.status <> $5
      AND seg.start_date <= $7 AND seg.end_date >= $6
    ORDER BY st.last_name, st.first_name, seg.start_date
  `, departmentID, excludeStaffID, StatusPending, StatusApproved, StatusRejected, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCommitted(rows)
}

// OwnCommittedSegments returns the staff member's segments on other
// non-rejected plans, regardless of department.
func (s *Store) OwnCommittedSegments(ctx context.Context, staffID, excludePlanID string) ([]CommittedSegment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, st.id, st.first_name || ' ' || st.last_name, seg.start_date, seg.end_date, seg.days
    FROM vacation_segments seg
    JOIN vacation_plans p ON p.id = seg.plan_id
    JOIN staff st ON st.id = p.staff_id
    WHERE p.staff_id = $1
      AND p.id::text <> $2
      AND p.status <> $3
      AND seg.status <> $3
    ORDER BY seg.start_date
  `, staffID, excludePlanID, StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCommitted(rows)
}

func scanCommitted(rows pgx.Rows) ([]CommittedSegment, error) {
	var out []CommittedSegment
	for rows.Next() {
		var cs CommittedSegment
		if err := rows.Scan(&cs.PlanID, &cs.StaffID, &cs.StaffName, &cs.StartDate, &cs.EndDate, &cs.Days); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}
