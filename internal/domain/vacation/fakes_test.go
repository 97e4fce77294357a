package vacation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"planivo/internal/domain/auth"
	"planivo/internal/domain/org"
	"planivo/internal/domain/roster"
)

type fakeStore struct {
	nextID       int
	plans        map[string]*Plan
	approvals    map[string]ApprovalRecord
	balances     map[string]Balance
	roleDefaults map[string]float64
	leaveTypes   map[string]LeaveType
	peers        []CommittedSegment
	own          []CommittedSegment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:        make(map[string]*Plan),
		approvals:    make(map[string]ApprovalRecord),
		balances:     make(map[string]Balance),
		roleDefaults: make(map[string]float64),
		leaveTypes:   make(map[string]LeaveType),
	}
}

func balanceKey(staffID, leaveTypeID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", staffID, leaveTypeID, year)
}

func approvalKey(planID string, level int) string {
	return fmt.Sprintf("%s|%d", planID, level)
}

func (f *fakeStore) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return fn(f)
}

func (f *fakeStore) InsertPlan(ctx context.Context, plan *Plan) error {
	f.nextID++
	plan.ID = fmt.Sprintf("plan-%d", f.nextID)
	plan.CreatedAt = time.Now().UTC()
	for i := range plan.Segments {
		plan.Segments[i].ID = fmt.Sprintf("%s-seg-%d", plan.ID, i+1)
		plan.Segments[i].PlanID = plan.ID
	}
	stored := *plan
	stored.Segments = append([]Segment(nil), plan.Segments...)
	f.plans[plan.ID] = &stored
	return nil
}

func (f *fakeStore) PlanWithSegments(ctx context.Context, planID string) (*Plan, error) {
	stored, ok := f.plans[planID]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	plan := *stored
	plan.Segments = append([]Segment(nil), stored.Segments...)
	return &plan, nil
}

func (f *fakeStore) UpdatePlanStatus(ctx context.Context, planID, status string, totalDays float64, submittedAt *time.Time) error {
	stored, ok := f.plans[planID]
	if !ok {
		return fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	stored.Status = status
	stored.TotalDays = totalDays
	if submittedAt != nil {
		stored.SubmittedAt = submittedAt
	}
	return nil
}

func (f *fakeStore) UpdateSegmentStatuses(ctx context.Context, segments []Segment) error {
	for _, seg := range segments {
		stored, ok := f.plans[seg.PlanID]
		if !ok {
			continue
		}
		for i := range stored.Segments {
			if stored.Segments[i].ID == seg.ID {
				stored.Segments[i].Status = seg.Status
			}
		}
	}
	return nil
}

func (f *fakeStore) ListPlansForStaff(ctx context.Context, staffID string) ([]Plan, error) {
	var out []Plan
	for _, stored := range f.plans {
		if stored.StaffID == staffID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (f *fakeStore) PendingPlans(ctx context.Context, organizationID string) ([]Plan, error) {
	var out []Plan
	for _, stored := range f.plans {
		if stored.Status == StatusPending {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (f *fakeStore) ApprovedSchedule(ctx context.Context, organizationID string, from, to time.Time) ([]ScheduleRow, error) {
	return nil, nil
}

func (f *fakeStore) UpsertApproval(ctx context.Context, rec *ApprovalRecord) error {
	key := approvalKey(rec.PlanID, rec.Level)
	if existing, ok := f.approvals[key]; ok {
		rec.ID = existing.ID
	} else {
		rec.ID = fmt.Sprintf("approval-%s", key)
	}
	rec.DecidedAt = time.Now().UTC()
	f.approvals[key] = *rec
	return nil
}

func (f *fakeStore) ApprovalsForPlan(ctx context.Context, planID string) ([]ApprovalRecord, error) {
	var out []ApprovalRecord
	for _, rec := range f.approvals {
		if rec.PlanID == planID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (f *fakeStore) PeerCommittedSegments(ctx context.Context, departmentID, excludeStaffID string, from, to time.Time) ([]CommittedSegment, error) {
	return f.peers, nil
}

func (f *fakeStore) OwnCommittedSegments(ctx context.Context, staffID, excludePlanID string) ([]CommittedSegment, error) {
	return f.own, nil
}

func (f *fakeStore) LeaveTypeByID(ctx context.Context, organizationID, leaveTypeID string) (LeaveType, error) {
	lt, ok := f.leaveTypes[leaveTypeID]
	if !ok {
		return LeaveType{}, fmt.Errorf("leave type %s: %w", leaveTypeID, ErrNotFound)
	}
	return lt, nil
}

func (f *fakeStore) ListLeaveTypes(ctx context.Context, organizationID string) ([]LeaveType, error) {
	var out []LeaveType
	for _, lt := range f.leaveTypes {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) CreateLeaveType(ctx context.Context, lt LeaveType) (string, error) {
	f.nextID++
	lt.ID = fmt.Sprintf("lt-%d", f.nextID)
	lt.CreatedAt = time.Now().UTC()
	f.leaveTypes[lt.ID] = lt
	return lt.ID, nil
}

func (f *fakeStore) BalanceRow(ctx context.Context, staffID, leaveTypeID string, year int) (Balance, bool, error) {
	b, ok := f.balances[balanceKey(staffID, leaveTypeID, year)]
	if !ok {
		return Balance{}, false, nil
	}
	return b, true, nil
}

func (f *fakeStore) RoleDefaultDays(ctx context.Context, organizationID, role, leaveTypeID string, year int) (float64, bool, error) {
	days, ok := f.roleDefaults[fmt.Sprintf("%s|%s|%s|%d", organizationID, role, leaveTypeID, year)]
	return days, ok, nil
}

func (f *fakeStore) SetRoleDefault(ctx context.Context, rd RoleDefault) error {
	f.roleDefaults[fmt.Sprintf("%s|%s|%s|%d", rd.OrganizationID, rd.Role, rd.LeaveTypeID, rd.Year)] = rd.DefaultDays
	return nil
}

func (f *fakeStore) UpsertBalanceOverride(ctx context.Context, b Balance) error {
	f.balances[balanceKey(b.StaffID, b.LeaveTypeID, b.Year)] = b
	return nil
}

func (f *fakeStore) EnsureBalanceRow(ctx context.Context, staffID, leaveTypeID string, year int, accrued float64) error {
	key := balanceKey(staffID, leaveTypeID, year)
	if _, ok := f.balances[key]; ok {
		return nil
	}
	f.balances[key] = Balance{
		StaffID:     staffID,
		LeaveTypeID: leaveTypeID,
		Year:        year,
		Accrued:     accrued,
		Balance:     accrued,
	}
	return nil
}

func (f *fakeStore) DebitBalance(ctx context.Context, staffID, leaveTypeID string, year int, days float64) (bool, error) {
	key := balanceKey(staffID, leaveTypeID, year)
	b, ok := f.balances[key]
	if !ok || b.Balance < days {
		return false, nil
	}
	b.Used += days
	b.Balance -= days
	f.balances[key] = b
	return true, nil
}

type fakeDirectory struct {
	profiles map[string]org.StaffProfile
	mode     string
}

func (f *fakeDirectory) StaffProfile(ctx context.Context, staffID string) (org.StaffProfile, error) {
	p, ok := f.profiles[staffID]
	if !ok {
		return org.StaffProfile{}, fmt.Errorf("staff %s: %w", staffID, org.ErrNotFound)
	}
	return p, nil
}

func (f *fakeDirectory) LeaveMode(ctx context.Context, organizationID string) (string, error) {
	return f.mode, nil
}

type fakeRoster struct {
	shifts []roster.Shift
	events []roster.Event
}

func (f *fakeRoster) ShiftsFor(ctx context.Context, staffID string, from, to time.Time) ([]roster.Shift, error) {
	return f.shifts, nil
}

func (f *fakeRoster) EventsFor(ctx context.Context, staffID string, from, to time.Time) ([]roster.Event, error) {
	return f.events, nil
}

type fakeSink struct {
	sent []Notification
}

func (f *fakeSink) Notify(ctx context.Context, n Notification) {
	f.sent = append(f.sent, n)
}

// fixture wires a service over the fakes with a small org: one department
// with a head and two staff, plus the supervisors above them.
type fixture struct {
	store  *fakeStore
	dir    *fakeDirectory
	roster *fakeRoster
	sink   *fakeSink
	svc    *Service
}

const (
	orgID       = "org-1"
	annualLeave = "lt-annual"
)

func newFixture(mode string) *fixture {
	store := newFakeStore()
	store.leaveTypes[annualLeave] = LeaveType{
		ID:             annualLeave,
		OrganizationID: orgID,
		Name:           "Annual Leave",
		Active:         true,
	}

	dir := &fakeDirectory{
		mode: mode,
		profiles: map[string]org.StaffProfile{
			"staff-1": staffProfile("staff-1", "Jonas Brandt", auth.RoleStaff, "dept-a", "fac-a", "ws-a"),
			"staff-2": staffProfile("staff-2", "Mara Lindt", auth.RoleStaff, "dept-a", "fac-a", "ws-a"),
			"head-1":  staffProfile("head-1", "Petra Hoff", auth.RoleDepartmentHead, "dept-a", "fac-a", "ws-a"),
			"head-2":  staffProfile("head-2", "Oskar Renz", auth.RoleDepartmentHead, "dept-b", "fac-a", "ws-a"),
			"fs-1":    staffProfile("fs-1", "Ines Falk", auth.RoleFacilitySupervisor, "dept-x", "fac-a", "ws-a"),
			"ws-1":    staffProfile("ws-1", "Rolf Adler", auth.RoleWorkspaceSupervisor, "dept-y", "fac-b", "ws-a"),
			"admin":   staffProfile("admin", "Root Admin", auth.RoleSuperAdmin, "dept-z", "fac-z", "ws-z"),
		},
	}

	ros := &fakeRoster{}
	sink := &fakeSink{}
	return &fixture{
		store:  store,
		dir:    dir,
		roster: ros,
		sink:   sink,
		svc:    NewService(store, dir, ros, sink, 6),
	}
}

func staffProfile(id, name, role, dept, fac, ws string) org.StaffProfile {
	return org.StaffProfile{
		StaffID:        id,
		OrganizationID: orgID,
		Name:           name,
		Role:           role,
		DepartmentID:   dept,
		FacilityID:     fac,
		WorkspaceID:    ws,
	}
}

func (f *fixture) setBalance(staffID string, year int, accrued, used float64) {
	f.store.balances[balanceKey(staffID, annualLeave, year)] = Balance{
		StaffID:     staffID,
		LeaveTypeID: annualLeave,
		Year:        year,
		Accrued:     accrued,
		Used:        used,
		Balance:     accrued - used,
	}
}

// pendingPlan creates and submits a plan so decision tests start from the
// pending state.
func (f *fixture) pendingPlan(ctx context.Context, staffID string, segments []SegmentInput) *Plan {
	plan, err := f.svc.CreatePlan(ctx, CreatePlanInput{
		StaffID:     staffID,
		LeaveTypeID: annualLeave,
		Segments:    segments,
		CreatedBy:   staffID,
	})
	if err != nil {
		panic(err)
	}
	plan, err = f.svc.Submit(ctx, plan.ID, staffID)
	if err != nil {
		panic(err)
	}
	return plan
}
