package vacation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planivo/internal/domain/org"
)

// errInsufficientDirect aborts the direct-approval transaction so the debit
// rolls back before the plan is re-created in rejected status.
var errInsufficientDirect = errors.New("direct approval blocked by balance")

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type CreatePlanInput struct {
	StaffID     string
	LeaveTypeID string
	Segments    []SegmentInput
	Notes       string
	CreatedBy   string
}

type DecideInput struct {
	PlanID             string
	ActorID            string
	Decision           string
	SelectedSegmentIDs []string
	Justification      string
}

// DecideResult carries either the finalized plan or, when conflicts were
// found and no justification supplied, the conflict set for the caller to
// re-present. A non-nil Conflicts means nothing was persisted.
type DecideResult struct {
	Plan      *Plan        `json:"plan,omitempty"`
	Conflicts *ConflictSet `json:"conflicts,omitempty"`
}

// CreatePlan saves a draft: the plan and its segments are created atomically
// and totals cover every segment until a decision narrows them.
func (s *Service) CreatePlan(ctx context.Context, in CreatePlanInput) (*Plan, error) {
	requester, err := s.dir.StaffProfile(ctx, in.StaffID)
	if err != nil {
		return nil, err
	}

	lt, err := s.store.LeaveTypeByID(ctx, requester.OrganizationID, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if !lt.Active {
		return nil, &InputError{Field: "leaveTypeId", Reason: "leave type is inactive"}
	}

	segments, total, err := ValidateSegments(in.Segments, s.maxSegments, lt.MaxDaysPerRequest)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		StaffID:      in.StaffID,
		DepartmentID: requester.DepartmentID,
		LeaveTypeID:  in.LeaveTypeID,
		Status:       StatusDraft,
		TotalDays:    total,
		Notes:        in.Notes,
		CreatedBy:    in.CreatedBy,
		Segments:     segments,
	}
	if err := s.store.InTx(ctx, func(tx StoreAPI) error {
		return tx.InsertPlan(ctx, plan)
	}); err != nil {
		return nil, err
	}
	return plan, nil
}

// Submit moves a draft to pending. No conflict or balance checks run here;
// both happen at decision time.
func (s *Service) Submit(ctx context.Context, planID, actorID string) (*Plan, error) {
	plan, err := s.store.PlanWithSegments(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusDraft {
		return nil, fmt.Errorf("plan is %s: %w", plan.Status, ErrInvalidState)
	}
	if actorID != plan.StaffID && actorID != plan.CreatedBy {
		return nil, ErrUnauthorized
	}
	if len(plan.Segments) == 0 {
		return nil, &InputError{Field: "segments", Reason: "at least one segment is required"}
	}

	now := time.Now().UTC()
	if err := s.store.UpdatePlanStatus(ctx, plan.ID, StatusPending, plan.TotalDays, &now); err != nil {
		return nil, err
	}
	plan.Status = StatusPending
	plan.SubmittedAt = &now
	return plan, nil
}

// Decide applies an approver's decision to a pending plan. Approvals with
// unacknowledged conflicts return the conflict set instead of mutating
// anything; the caller may shrink the selection or resubmit with a
// justification. The balance debit, segment updates, status transition and
// approval record all commit in one transaction.
func (s *Service) Decide(ctx context.Context, in DecideInput) (*DecideResult, error) {
	plan, err := s.store.PlanWithSegments(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusPending {
		return nil, fmt.Errorf("plan is %s: %w", plan.Status, ErrInvalidState)
	}

	requester, err := s.dir.StaffProfile(ctx, plan.StaffID)
	if err != nil {
		return nil, err
	}
	actor, err := s.dir.StaffProfile(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	scope := RoutingScopeFor(requester.Role)
	if !Authorized(actor, requester, scope) {
		return nil, ErrUnauthorized
	}

	switch in.Decision {
	case DecisionReject:
		return s.reject(ctx, plan, actor, scope, in.Justification)
	case DecisionApprove:
		return s.approve(ctx, plan, requester, actor, scope, in)
	default:
		return nil, &InputError{Field: "decision", Reason: "must be approve or reject"}
	}
}

func (s *Service) reject(ctx context.Context, plan *Plan, actor org.StaffProfile, scope Scope, comments string) (*DecideResult, error) {
	segments := RejectAll(plan.Segments)
	rec := &ApprovalRecord{
		PlanID:     plan.ID,
		Level:      scope.Level(),
		ApproverID: actor.StaffID,
		Status:     StatusRejected,
		Comments:   comments,
	}
	if err := s.store.InTx(ctx, func(tx StoreAPI) error {
		if err := tx.UpdateSegmentStatuses(ctx, segments); err != nil {
			return err
		}
		if err := tx.UpdatePlanStatus(ctx, plan.ID, StatusRejected, 0, nil); err != nil {
			return err
		}
		return tx.UpsertApproval(ctx, rec)
	}); err != nil {
		return nil, err
	}

	plan.Status = StatusRejected
	plan.TotalDays = 0
	plan.Segments = segments
	s.notify(ctx, Notification{
		PlanID:    plan.ID,
		NewStatus: StatusRejected,
		StaffID:   plan.StaffID,
		ActorName: actor.Name,
		Message:   "Your leave request was rejected.",
	})
	return &DecideResult{Plan: plan}, nil
}

func (s *Service) approve(ctx context.Context, plan *Plan, requester, actor org.StaffProfile, scope Scope, in DecideInput) (*DecideResult, error) {
	selection := selectionSet(in.SelectedSegmentIDs)
	if len(selection) == 0 {
		for _, seg := range plan.Segments {
			selection[seg.ID] = true
		}
	}
	var selected []Segment
	for _, seg := range plan.Segments {
		if selection[seg.ID] {
			selected = append(selected, seg)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoSegmentsSelected
	}

	conflicts, err := s.detectConflicts(ctx, plan, requester, selected)
	if err != nil {
		return nil, err
	}
	if !conflicts.Empty() && in.Justification == "" {
		return &DecideResult{Conflicts: &conflicts}, nil
	}

	var segments []Segment
	var total float64
	rec := &ApprovalRecord{
		PlanID:     plan.ID,
		Level:      scope.Level(),
		ApproverID: actor.StaffID,
		Status:     StatusApproved,
		Comments:   in.Justification,
	}
	if !conflicts.Empty() {
		rec.HasConflict = true
		rec.ConflictReason = in.Justification
		rec.ConflictingParties = conflicts.Parties()
	}

	if err := s.store.InTx(ctx, func(tx StoreAPI) error {
		mode, err := s.dir.LeaveMode(ctx, requester.OrganizationID)
		if err != nil {
			return err
		}
		if mode == ModeFull {
			var days float64
			for _, seg := range selected {
				days += seg.Days
			}
			year := selected[0].StartDate.Year()
			if err := debit(ctx, tx, requester.OrganizationID, requester.Role, plan.StaffID, plan.LeaveTypeID, year, days); err != nil {
				return err
			}
		}

		segments, total, err = ApplySelection(plan.Segments, selection)
		if err != nil {
			return err
		}
		if err := tx.UpdateSegmentStatuses(ctx, segments); err != nil {
			return err
		}
		if err := tx.UpdatePlanStatus(ctx, plan.ID, StatusApproved, total, nil); err != nil {
			return err
		}
		return tx.UpsertApproval(ctx, rec)
	}); err != nil {
		return nil, err
	}

	plan.Status = StatusApproved
	plan.TotalDays = total
	plan.Segments = segments
	s.notify(ctx, Notification{
		PlanID:    plan.ID,
		NewStatus: StatusApproved,
		StaffID:   plan.StaffID,
		ActorName: actor.Name,
		Message:   fmt.Sprintf("Your leave request was approved for %.1f days.", total),
	})
	return &DecideResult{Plan: plan}, nil
}

// detectConflicts runs the advisory peer-overlap check and the operational
// checks over the selected segments only.
func (s *Service) detectConflicts(ctx context.Context, plan *Plan, requester org.StaffProfile, selected []Segment) (ConflictSet, error) {
	from, to := dateSpan(selected)

	peers, err := s.store.PeerCommittedSegments(ctx, plan.DepartmentID, plan.StaffID, from, to)
	if err != nil {
		return ConflictSet{}, err
	}

	operational, err := s.operationalConflicts(ctx, plan.StaffID, selected)
	if err != nil {
		return ConflictSet{}, err
	}

	return ConflictSet{
		Peer:        FindPeerOverlaps(selected, peers),
		Operational: operational,
	}, nil
}

func (s *Service) operationalConflicts(ctx context.Context, staffID string, segments []Segment) ([]OperationalConflict, error) {
	from, to := dateSpan(segments)

	shifts, err := s.roster.ShiftsFor(ctx, staffID, from, to)
	if err != nil {
		return nil, err
	}
	events, err := s.roster.EventsFor(ctx, staffID, from, to)
	if err != nil {
		return nil, err
	}
	return withinAnySegment(BuildOperationalConflicts(shifts, events), segments), nil
}

type CreateDirectInput struct {
	StaffID     string
	ManagerID   string
	LeaveTypeID string
	Segments    []SegmentInput
	Notes       string
}

// CreateDirect is the manager-initiated path: instead of parking at pending,
// an immediate decision is attempted at creation time. Self-overlap and
// operational conflicts are hard blockers, as is the balance check in full
// mode; peer-department overlap is not consulted because the creator already
// has authority over the department. A blocked plan is still created, in
// rejected status with a machine-written reason.
func (s *Service) CreateDirect(ctx context.Context, in CreateDirectInput) (*Plan, error) {
	manager, err := s.dir.StaffProfile(ctx, in.ManagerID)
	if err != nil {
		return nil, err
	}
	staff, err := s.dir.StaffProfile(ctx, in.StaffID)
	if err != nil {
		return nil, err
	}
	if !HasAuthorityOver(manager, staff) {
		return nil, ErrUnauthorized
	}

	lt, err := s.store.LeaveTypeByID(ctx, staff.OrganizationID, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if !lt.Active {
		return nil, &InputError{Field: "leaveTypeId", Reason: "leave type is inactive"}
	}

	segments, total, err := ValidateSegments(in.Segments, s.maxSegments, lt.MaxDaysPerRequest)
	if err != nil {
		return nil, err
	}

	if reason, err := s.directBlockReason(ctx, staff.StaffID, segments); err != nil {
		return nil, err
	} else if reason != "" {
		return s.createDecided(ctx, staff, manager, in, segments, 0, StatusRejected, reason)
	}

	mode, err := s.dir.LeaveMode(ctx, staff.OrganizationID)
	if err != nil {
		return nil, err
	}

	if mode == ModeFull {
		year := segments[0].StartDate.Year()
		plan, err := s.createDirectWithDebit(ctx, staff, manager, in, segments, total, year)
		if err != nil {
			return nil, err
		}
		return plan, nil
	}

	return s.createDecided(ctx, staff, manager, in, segments, total, StatusApproved, "")
}

// directBlockReason returns a machine-written rejection reason when the
// subordinate's own leave or operational commitments collide with the
// requested dates.
func (s *Service) directBlockReason(ctx context.Context, staffID string, segments []Segment) (string, error) {
	own, err := s.store.OwnCommittedSegments(ctx, staffID, "")
	if err != nil {
		return "", err
	}
	if overlap := FindSelfOverlap(segments, own); overlap != nil {
		return fmt.Sprintf("overlaps an existing leave request from %s to %s",
			overlap.StartDate.Format("2006-01-02"), overlap.EndDate.Format("2006-01-02")), nil
	}

	operational, err := s.operationalConflicts(ctx, staffID, segments)
	if err != nil {
		return "", err
	}
	if len(operational) > 0 {
		c := operational[0]
		return fmt.Sprintf("conflicts with %s %q on %s", c.Type, c.Name, c.Date.Format("2006-01-02")), nil
	}
	return "", nil
}

func (s *Service) createDirectWithDebit(ctx context.Context, staff, manager org.StaffProfile, in CreateDirectInput, segments []Segment, total float64, year int) (*Plan, error) {
	var days float64
	for _, seg := range segments {
		days += seg.Days
	}

	var plan *Plan
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		if err := debit(ctx, tx, staff.OrganizationID, staff.Role, staff.StaffID, in.LeaveTypeID, year, days); err != nil {
			var insufficient *InsufficientBalanceError
			if !errors.As(err, &insufficient) {
				return err
			}
			// Insufficient balance does not fail the call: the plan is
			// created rejected with the shortfall recorded.
			return errInsufficientDirect
		}
		created, err := insertDecided(ctx, tx, staff, manager, in, segments, total, StatusApproved, "")
		if err != nil {
			return err
		}
		plan = created
		return nil
	})
	if errors.Is(err, errInsufficientDirect) {
		effective, eErr := effectiveEntitlement(ctx, s.store, staff.OrganizationID, staff.Role, staff.StaffID, in.LeaveTypeID, year)
		if eErr != nil {
			return nil, eErr
		}
		reason := fmt.Sprintf("insufficient balance: available %.1f days, requested %.1f days", effective.Balance, days)
		return s.createDecided(ctx, staff, manager, in, segments, 0, StatusRejected, reason)
	}
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Notification{
		PlanID:    plan.ID,
		NewStatus: plan.Status,
		StaffID:   staff.StaffID,
		ActorName: manager.Name,
		Message:   fmt.Sprintf("%s scheduled leave on your behalf.", manager.Name),
	})
	return plan, nil
}

func (s *Service) createDecided(ctx context.Context, staff, manager org.StaffProfile, in CreateDirectInput, segments []Segment, total float64, status, reason string) (*Plan, error) {
	var plan *Plan
	if err := s.store.InTx(ctx, func(tx StoreAPI) error {
		created, err := insertDecided(ctx, tx, staff, manager, in, segments, total, status, reason)
		if err != nil {
			return err
		}
		plan = created
		return nil
	}); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s scheduled leave on your behalf.", manager.Name)
	if status == StatusRejected {
		message = "A leave request created on your behalf was rejected: " + reason
	}
	s.notify(ctx, Notification{
		PlanID:    plan.ID,
		NewStatus: status,
		StaffID:   staff.StaffID,
		ActorName: manager.Name,
		Message:   message,
	})
	return plan, nil
}

func insertDecided(ctx context.Context, tx StoreAPI, staff, manager org.StaffProfile, in CreateDirectInput, segments []Segment, total float64, status, reason string) (*Plan, error) {
	segmentStatus := StatusApproved
	if status == StatusRejected {
		segmentStatus = StatusRejected
	}
	decided := make([]Segment, len(segments))
	for i, seg := range segments {
		decided[i] = seg
		decided[i].Status = segmentStatus
	}

	now := time.Now().UTC()
	plan := &Plan{
		StaffID:      staff.StaffID,
		DepartmentID: staff.DepartmentID,
		LeaveTypeID:  in.LeaveTypeID,
		Status:       status,
		TotalDays:    total,
		Notes:        in.Notes,
		CreatedBy:    manager.StaffID,
		SubmittedAt:  &now,
		Segments:     decided,
	}
	if err := tx.InsertPlan(ctx, plan); err != nil {
		return nil, err
	}

	rec := &ApprovalRecord{
		PlanID:     plan.ID,
		Level:      RoutingScopeFor(staff.Role).Level(),
		ApproverID: manager.StaffID,
		Status:     status,
		Comments:   reason,
	}
	if err := tx.UpsertApproval(ctx, rec); err != nil {
		return nil, err
	}
	return plan, nil
}
