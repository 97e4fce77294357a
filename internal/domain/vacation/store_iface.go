package vacation

import (
	"context"
	"time"
)

// StoreAPI is the persistence boundary for plans, segments, approvals,
// balances and role defaults. InTx runs the callback against a store bound to
// a single transaction; every write inside either commits together or rolls
// back together.
type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error

	InsertPlan(ctx context.Context, plan *Plan) error
	PlanWithSegments(ctx context.Context, planID string) (*Plan, error)
	UpdatePlanStatus(ctx context.Context, planID, status string, totalDays float64, submittedAt *time.Time) error
	UpdateSegmentStatuses(ctx context.Context, segments []Segment) error
	ListPlansForStaff(ctx context.Context, staffID string) ([]Plan, error)
	PendingPlans(ctx context.Context, organizationID string) ([]Plan, error)
	ApprovedSchedule(ctx context.Context, organizationID string, from, to time.Time) ([]ScheduleRow, error)

	UpsertApproval(ctx context.Context, rec *ApprovalRecord) error
	ApprovalsForPlan(ctx context.Context, planID string) ([]ApprovalRecord, error)

	PeerCommittedSegments(ctx context.Context, departmentID, excludeStaffID string, from, to time.Time) ([]CommittedSegment, error)
	OwnCommittedSegments(ctx context.Context, staffID, excludePlanID string) ([]CommittedSegment, error)

	LeaveTypeByID(ctx context.Context, organizationID, leaveTypeID string) (LeaveType, error)
	ListLeaveTypes(ctx context.Context, organizationID string) ([]LeaveType, error)
	CreateLeaveType(ctx context.Context, lt LeaveType) (string, error)

	BalanceRow(ctx context.Context, staffID, leaveTypeID string, year int) (Balance, bool, error)
	RoleDefaultDays(ctx context.Context, organizationID, role, leaveTypeID string, year int) (float64, bool, error)
	SetRoleDefault(ctx context.Context, rd RoleDefault) error
	UpsertBalanceOverride(ctx context.Context, b Balance) error
	EnsureBalanceRow(ctx context.Context, staffID, leaveTypeID string, year int, accrued float64) error
	DebitBalance(ctx context.Context, staffID, leaveTypeID string, year int, days float64) (bool, error)
}

// ScheduleRow is one approved segment flattened for calendar export.
type ScheduleRow struct {
	StaffName      string    `json:"staffName"`
	DepartmentName string    `json:"departmentName"`
	LeaveTypeName  string    `json:"leaveTypeName"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Days           float64   `json:"days"`
}
