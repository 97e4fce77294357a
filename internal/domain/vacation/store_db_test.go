package vacation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"planivo/internal/platform/db"
)

// dbFixture holds the ids created for one journey run.
type dbFixture struct {
	pool        *pgxpool.Pool
	orgID       string
	deptID      string
	staffID     string
	peerID      string
	leaveTypeID string
}

func setupDB(t *testing.T) *dbFixture {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database journey test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE organizations CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	f := &dbFixture{pool: pool}
	mustScan := func(dest *string, sql string, args ...any) {
		t.Helper()
		if err := pool.QueryRow(ctx, sql, args...).Scan(dest); err != nil {
			t.Fatalf("fixture insert failed: %v", err)
		}
	}

	mustScan(&f.orgID, "INSERT INTO organizations (name, leave_mode) VALUES ('Test Org', 'full') RETURNING id")
	var workspaceID, facilityID string
	mustScan(&workspaceID, "INSERT INTO workspaces (organization_id, name) VALUES ($1, 'WS') RETURNING id", f.orgID)
	mustScan(&facilityID, "INSERT INTO facilities (workspace_id, name) VALUES ($1, 'Fac') RETURNING id", workspaceID)
	mustScan(&f.deptID, "INSERT INTO departments (facility_id, name) VALUES ($1, 'Dept') RETURNING id", facilityID)
	mustScan(&f.staffID, `
    INSERT INTO staff (organization_id, department_id, first_name, last_name, email, password_hash, role)
    VALUES ($1, $2, 'Jonas', 'Brandt', 'jonas@test.local', 'x', 'staff') RETURNING id
  `, f.orgID, f.deptID)
	mustScan(&f.peerID, `
    INSERT INTO staff (organization_id, department_id, first_name, last_name, email, password_hash, role)
    VALUES ($1, $2, 'Mara', 'Lindt', 'mara@test.local', 'x', 'staff') RETURNING id
  `, f.orgID, f.deptID)
	mustScan(&f.leaveTypeID, `
    INSERT INTO leave_types (organization_id, name) VALUES ($1, 'Annual Leave') RETURNING id
  `, f.orgID)
	return f
}

func TestStorePlanJourney(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	store := NewStore(f.pool)

	plan := &Plan{
		StaffID:      f.staffID,
		DepartmentID: f.deptID,
		LeaveTypeID:  f.leaveTypeID,
		Status:       StatusDraft,
		TotalDays:    5,
		CreatedBy:    f.staffID,
		Segments: []Segment{
			{StartDate: day("2026-06-01"), EndDate: day("2026-06-05"), Days: 5, Status: StatusPending},
		},
	}
	if err := store.InTx(ctx, func(tx StoreAPI) error {
		return tx.InsertPlan(ctx, plan)
	}); err != nil {
		t.Fatalf("insert plan: %v", err)
	}
	if plan.ID == "" || plan.Segments[0].ID == "" {
		t.Fatal("ids not assigned on insert")
	}

	loaded, err := store.PlanWithSegments(ctx, plan.ID)
	if err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if loaded.Status != StatusDraft || len(loaded.Segments) != 1 || loaded.Segments[0].Days != 5 {
		t.Fatalf("loaded %+v", loaded)
	}

	now := time.Now().UTC()
	if err := store.UpdatePlanStatus(ctx, plan.ID, StatusPending, 5, &now); err != nil {
		t.Fatalf("update status: %v", err)
	}

	pending, err := store.PendingPlans(ctx, f.orgID)
	if err != nil {
		t.Fatalf("pending plans: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != plan.ID {
		t.Fatalf("pending %+v", pending)
	}
}

func TestStoreApprovalUpsertIsIdempotentPerLevel(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	store := NewStore(f.pool)

	plan := &Plan{
		StaffID: f.staffID, DepartmentID: f.deptID, LeaveTypeID: f.leaveTypeID,
		Status: StatusPending, TotalDays: 2, CreatedBy: f.staffID,
		Segments: []Segment{{StartDate: day("2026-06-01"), EndDate: day("2026-06-02"), Days: 2, Status: StatusPending}},
	}
	if err := store.InsertPlan(ctx, plan); err != nil {
		t.Fatalf("insert plan: %v", err)
	}

	first := &ApprovalRecord{PlanID: plan.ID, Level: 1, ApproverID: f.peerID, Status: StatusRejected, Comments: "first pass"}
	if err := store.UpsertApproval(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := &ApprovalRecord{PlanID: plan.ID, Level: 1, ApproverID: f.peerID, Status: StatusApproved, Comments: "reconsidered"}
	if err := store.UpsertApproval(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("re-decision created a new row: %s vs %s", first.ID, second.ID)
	}

	records, err := store.ApprovalsForPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("approvals: %v", err)
	}
	if len(records) != 1 || records[0].Status != StatusApproved || records[0].Comments != "reconsidered" {
		t.Fatalf("records %+v, want single overwritten record", records)
	}
}

func TestStoreDebitBalanceIsConditional(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	store := NewStore(f.pool)

	if err := store.EnsureBalanceRow(ctx, f.staffID, f.leaveTypeID, 2026, 10); err != nil {
		t.Fatalf("ensure row: %v", err)
	}
	// A second ensure with a different accrual must not overwrite.
	if err := store.EnsureBalanceRow(ctx, f.staffID, f.leaveTypeID, 2026, 99); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}

	ok, err := store.DebitBalance(ctx, f.staffID, f.leaveTypeID, 2026, 7)
	if err != nil || !ok {
		t.Fatalf("debit 7: ok=%v err=%v", ok, err)
	}

	ok, err = store.DebitBalance(ctx, f.staffID, f.leaveTypeID, 2026, 4)
	if err != nil {
		t.Fatalf("debit 4: %v", err)
	}
	if ok {
		t.Fatal("debit beyond the remaining balance must fail")
	}

	row, found, err := store.BalanceRow(ctx, f.staffID, f.leaveTypeID, 2026)
	if err != nil || !found {
		t.Fatalf("balance row: found=%v err=%v", found, err)
	}
	if row.Accrued != 10 || row.Used != 7 || row.Balance != 3 {
		t.Fatalf("row %+v, want 10/7/3", row)
	}
}

func TestStorePeerCommittedSegments(t *testing.T) {
	f := setupDB(t)
	ctx := context.Background()
	store := NewStore(f.pool)

	peerPlan := &Plan{
		StaffID: f.peerID, DepartmentID: f.deptID, LeaveTypeID: f.leaveTypeID,
		Status: StatusPending, TotalDays: 3, CreatedBy: f.peerID,
		Segments: []Segment{{StartDate: day("2026-06-03"), EndDate: day("2026-06-05"), Days: 3, Status: StatusPending}},
	}
	if err := store.InsertPlan(ctx, peerPlan); err != nil {
		t.Fatalf("insert peer plan: %v", err)
	}

	got, err := store.PeerCommittedSegments(ctx, f.deptID, f.staffID, day("2026-06-01"), day("2026-06-10"))
	if err != nil {
		t.Fatalf("peer segments: %v", err)
	}
	if len(got) != 1 || got[0].StaffName != "Mara Lindt" || got[0].Days != 3 {
		t.Fatalf("got %+v", got)
	}

	// Outside the window nothing is reported.
	got, err = store.PeerCommittedSegments(ctx, f.deptID, f.staffID, day("2026-07-01"), day("2026-07-10"))
	if err != nil {
		t.Fatalf("peer segments: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v, want none", got)
	}
}
