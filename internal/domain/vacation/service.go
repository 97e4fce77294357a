package vacation

import (
	"context"
	"time"

	"planivo/internal/domain/org"
	"planivo/internal/domain/roster"
)

// Directory resolves identity and organization settings; implemented by
// org.Store.
type Directory interface {
	StaffProfile(ctx context.Context, staffID string) (org.StaffProfile, error)
	LeaveMode(ctx context.Context, organizationID string) (string, error)
}

// Roster exposes operational commitments; implemented by roster.Store.
type Roster interface {
	ShiftsFor(ctx context.Context, staffID string, from, to time.Time) ([]roster.Shift, error)
	EventsFor(ctx context.Context, staffID string, from, to time.Time) ([]roster.Event, error)
}

// Notification is what the core hands the delivery sink; the core only
// decides that a notification is due and what it says.
type Notification struct {
	PlanID    string
	NewStatus string
	StaffID   string
	ActorName string
	Message   string
}

type NotificationSink interface {
	Notify(ctx context.Context, n Notification)
}

type Service struct {
	store       StoreAPI
	dir         Directory
	roster      Roster
	sink        NotificationSink
	maxSegments int
}

func NewService(store StoreAPI, dir Directory, ros Roster, sink NotificationSink, maxSegments int) *Service {
	if maxSegments <= 0 {
		maxSegments = 6
	}
	return &Service{store: store, dir: dir, roster: ros, sink: sink, maxSegments: maxSegments}
}

func (s *Service) ListTypes(ctx context.Context, organizationID string) ([]LeaveType, error) {
	return s.store.ListLeaveTypes(ctx, organizationID)
}

func (s *Service) CreateType(ctx context.Context, lt LeaveType) (string, error) {
	if lt.Name == "" {
		return "", &InputError{Field: "name", Reason: "is required"}
	}
	if lt.MaxDaysPerRequest < 0 {
		return "", &InputError{Field: "maxDaysPerRequest", Reason: "must not be negative"}
	}
	return s.store.CreateLeaveType(ctx, lt)
}

// PlanByID returns the plan with its segments and audit trail.
func (s *Service) PlanByID(ctx context.Context, planID string) (*Plan, []ApprovalRecord, error) {
	plan, err := s.store.PlanWithSegments(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	approvals, err := s.store.ApprovalsForPlan(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	return plan, approvals, nil
}

func (s *Service) PlansForStaff(ctx context.Context, staffID string) ([]Plan, error) {
	return s.store.ListPlansForStaff(ctx, staffID)
}

// PendingForActor lists pending plans whose routing scope the actor is
// authorized to decide. The override authority sees every pending plan.
func (s *Service) PendingForActor(ctx context.Context, actorID string) ([]Plan, error) {
	actor, err := s.dir.StaffProfile(ctx, actorID)
	if err != nil {
		return nil, err
	}

	plans, err := s.store.PendingPlans(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]org.StaffProfile)
	var out []Plan
	for _, plan := range plans {
		requester, ok := profiles[plan.StaffID]
		if !ok {
			requester, err = s.dir.StaffProfile(ctx, plan.StaffID)
			if err != nil {
				return nil, err
			}
			profiles[plan.StaffID] = requester
		}
		if Authorized(actor, requester, RoutingScopeFor(requester.Role)) {
			out = append(out, plan)
		}
	}
	return out, nil
}

// ApprovedSchedule returns the approved segments in a window, for calendar
// rendering and export.
func (s *Service) ApprovedSchedule(ctx context.Context, organizationID string, from, to time.Time) ([]ScheduleRow, error) {
	if to.Before(from) {
		return nil, &InputError{Field: "to", Reason: "before from date"}
	}
	return s.store.ApprovedSchedule(ctx, organizationID, from, to)
}

func (s *Service) notify(ctx context.Context, n Notification) {
	if s.sink == nil {
		return
	}
	s.sink.Notify(ctx, n)
}
