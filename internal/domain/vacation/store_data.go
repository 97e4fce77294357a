package vacation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) InsertPlan(ctx context.Context, plan *Plan) error {
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO vacation_plans (staff_id, department_id, leave_type_id, status, total_days, notes, created_by, submitted_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id, created_at
  `, plan.StaffID, plan.DepartmentID, plan.LeaveTypeID, plan.Status, plan.TotalDays, plan.Notes, plan.CreatedBy, plan.SubmittedAt).Scan(&plan.ID, &plan.CreatedAt); err != nil {
		return err
	}

	for i := range plan.Segments {
		seg := &plan.Segments[i]
		seg.PlanID = plan.ID
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO vacation_segments (plan_id, start_date, end_date, days, status)
      VALUES ($1,$2,$3,$4,$5)
      RETURNING id
    `, plan.ID, seg.StartDate, seg.EndDate, seg.Days, seg.Status).Scan(&seg.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PlanWithSegments(ctx context.Context, planID string) (*Plan, error) {
	var plan Plan
	err := s.DB.QueryRow(ctx, `
    SELECT id, staff_id, department_id, leave_type_id, status, total_days, notes, created_by, submitted_at, created_at
    FROM vacation_plans
    WHERE id = $1
  `, planID).Scan(&plan.ID, &plan.StaffID, &plan.DepartmentID, &plan.LeaveTypeID, &plan.Status, &plan.TotalDays, &plan.Notes, &plan.CreatedBy, &plan.SubmittedAt, &plan.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, plan_id, start_date, end_date, days, status
    FROM vacation_segments
    WHERE plan_id = $1
    ORDER BY start_date
  `, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seg Segment
		if err := rows.Scan(&seg.ID, &seg.PlanID, &seg.StartDate, &seg.EndDate, &seg.Days, &seg.Status); err != nil {
			return nil, err
		}
		plan.Segments = append(plan.Segments, seg)
	}
	return &plan, rows.Err()
}

func (s *Store) UpdatePlanStatus(ctx context.Context, planID, status string, totalDays float64, submittedAt *time.Time) error {
	if submittedAt != nil {
		_, err := s.DB.Exec(ctx, `
      UPDATE vacation_plans SET status = $1, total_days = $2, submitted_at = $3 WHERE id = $4
    `, status, totalDays, submittedAt, planID)
		return err
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE vacation_plans SET status = $1, total_days = $2 WHERE id = $3
  `, status, totalDays, planID)
	return err
}

func (s *Store) UpdateSegmentStatuses(ctx context.Context, segments []Segment) error {
	for _, seg := range segments {
		if _, err := s.DB.Exec(ctx, `
      UPDATE vacation_segments SET status = $1 WHERE id = $2
    `, seg.Status, seg.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListPlansForStaff(ctx context.Context, staffID string) ([]Plan, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, staff_id, department_id, leave_type_id, status, total_days, notes, created_by, submitted_at, created_at
    FROM vacation_plans
    WHERE staff_id = $1
    ORDER BY created_at DESC
  `, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlans(rows)
}

func (s *Store) PendingPlans(ctx context.Context, organizationID string) ([]Plan, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.staff_id, p.department_id, p.leave_type_id, p.status, p.total_days, p.notes, p.created_by, p.submitted_at, p.created_at
    FROM vacation_plans p
    JOIN staff st ON st.id = p.staff_id
    WHERE st.organization_id = $1 AND p.status = $2
    ORDER BY p.submitted_at
  `, organizationID, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlans(rows)
}

func scanPlans(rows pgx.Rows) ([]Plan, error) {
	var plans []Plan
	for rows.Next() {
		var plan Plan
		if err := rows.Scan(&plan.ID, &plan.StaffID, &plan.DepartmentID, &plan.LeaveTypeID, &plan.Status, &plan.TotalDays, &plan.Notes, &plan.CreatedBy, &plan.SubmittedAt, &plan.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (s *Store) ApprovedSchedule(ctx context.Context, organizationID string, from, to time.Time) ([]ScheduleRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT st.first_name || ' ' || st.last_name, d.name, lt.name, seg.start_date, seg.end_date, seg.days
    FROM vacation_segments seg
    JOIN vacation_plans p ON p.id = seg.plan_id
    JOIN staff st ON st.id = p.staff_id
    JOIN departments d ON d.id = p.department_id
    JOIN leave_types lt ON lt.id = p.leave_type_id
    WHERE st.organization_id = $1
      AND p.status = $2 AND seg.status = $2
      AND seg.start_date <= $4 AND seg.end_date >= $3
    ORDER BY seg.start_date, st.last_name
  `, organizationID, StatusApproved, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleRow
	for rows.Next() {
		var row ScheduleRow
		if err := rows.Scan(&row.StaffName, &row.DepartmentName, &row.LeaveTypeName, &row.StartDate, &row.EndDate, &row.Days); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) UpsertApproval(ctx context.Context, rec *ApprovalRecord) error {
	parties, err := json.Marshal(rec.ConflictingParties)
	if err != nil {
		return err
	}
	return s.DB.QueryRow(ctx, `
    INSERT INTO approval_records (plan_id, level, approver_id, status, comments, has_conflict, conflict_reason, conflicting_parties, decided_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
    ON CONFLICT (plan_id, level) DO UPDATE SET
      approver_id = EXCLUDED.approver_id,
      status = EXCLUDED.status,
      comments = EXCLUDED.comments,
      has_conflict = EXCLUDED.has_conflict,
      conflict_reason = EXCLUDED.conflict_reason,
      conflicting_parties = EXCLUDED.conflicting_parties,
      decided_at = now()
    RETURNING id, decided_at
  `, rec.PlanID, rec.Level, rec.ApproverID, rec.Status, rec.Comments, rec.HasConflict, rec.ConflictReason, parties).Scan(&rec.ID, &rec.DecidedAt)
}

func (s *Store) ApprovalsForPlan(ctx context.Context, planID string) ([]ApprovalRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, plan_id, level, approver_id, status, comments, has_conflict, conflict_reason, conflicting_parties, decided_at
    FROM approval_records
    WHERE plan_id = $1
    ORDER BY level
  `, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ApprovalRecord
	for rows.Next() {
		var rec ApprovalRecord
		var parties []byte
		if err := rows.Scan(&rec.ID, &rec.PlanID, &rec.Level, &rec.ApproverID, &rec.Status, &rec.Comments, &rec.HasConflict, &rec.ConflictReason, &parties, &rec.DecidedAt); err != nil {
			return nil, err
		}
		if len(parties) > 0 {
			if err := json.Unmarshal(parties, &rec.ConflictingParties); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) LeaveTypeByID(ctx context.Context, organizationID, leaveTypeID string) (LeaveType, error) {
	var lt LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, name, COALESCE(max_days_per_request, 0), requires_documentation, active, created_at
    FROM leave_types
    WHERE organization_id = $1 AND id = $2
  `, organizationID, leaveTypeID).Scan(&lt.ID, &lt.OrganizationID, &lt.Name, &lt.MaxDaysPerRequest, &lt.RequiresDocumentation, &lt.Active, &lt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return lt, fmt.Errorf("leave type %s: %w", leaveTypeID, ErrNotFound)
	}
	return lt, err
}

func (s *Store) ListLeaveTypes(ctx context.Context, organizationID string) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, organization_id, name, COALESCE(max_days_per_request, 0), requires_documentation, active, created_at
    FROM leave_types
    WHERE organization_id = $1
    ORDER BY name
  `, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var lt LeaveType
		if err := rows.Scan(&lt.ID, &lt.OrganizationID, &lt.Name, &lt.MaxDaysPerRequest, &lt.RequiresDocumentation, &lt.Active, &lt.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

func (s *Store) CreateLeaveType(ctx context.Context, lt LeaveType) (string, error) {
	var id string
	var maxDays any
	if lt.MaxDaysPerRequest > 0 {
		maxDays = lt.MaxDaysPerRequest
	}
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (organization_id, name, max_days_per_request, requires_documentation, active)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, lt.OrganizationID, lt.Name, maxDays, lt.RequiresDocumentation, lt.Active).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
