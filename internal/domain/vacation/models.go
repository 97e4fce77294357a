package vacation

import "time"

const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	ModePlanning = "planning"
	ModeFull     = "full"
)

type LeaveType struct {
	ID                    string    `json:"id"`
	OrganizationID        string    `json:"organizationId"`
	Name                  string    `json:"name"`
	MaxDaysPerRequest     float64   `json:"maxDaysPerRequest,omitempty"`
	RequiresDocumentation bool      `json:"requiresDocumentation"`
	Active                bool      `json:"active"`
	CreatedAt             time.Time `json:"createdAt"`
}

// RoleDefault is the fallback entitlement applied when no individual balance
// row exists for a staff member.
type RoleDefault struct {
	OrganizationID string  `json:"organizationId"`
	Role           string  `json:"role"`
	LeaveTypeID    string  `json:"leaveTypeId"`
	Year           int     `json:"year"`
	DefaultDays    float64 `json:"defaultDays"`
}

// Balance is an individual override row. Invariant: Balance == Accrued - Used
// and Balance >= 0 after every mutation.
type Balance struct {
	StaffID     string  `json:"staffId"`
	LeaveTypeID string  `json:"leaveTypeId"`
	Year        int     `json:"year"`
	Accrued     float64 `json:"accrued"`
	Used        float64 `json:"used"`
	Balance     float64 `json:"balance"`
}

type Plan struct {
	ID           string     `json:"id"`
	StaffID      string     `json:"staffId"`
	DepartmentID string     `json:"departmentId"`
	LeaveTypeID  string     `json:"leaveTypeId"`
	Status       string     `json:"status"`
	TotalDays    float64    `json:"totalDays"`
	Notes        string     `json:"notes,omitempty"`
	CreatedBy    string     `json:"createdBy"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	Segments     []Segment  `json:"segments,omitempty"`
}

// Segment is one contiguous date range within a plan. Days is the inclusive
// day count between StartDate and EndDate.
type Segment struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"planId,omitempty"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      float64   `json:"days"`
	Status    string    `json:"status"`
}

// ApprovalRecord is the durable audit trail of a decision, distinct from the
// plan's own status. At most one record per (plan, level); a re-decision
// overwrites it.
type ApprovalRecord struct {
	ID                 string          `json:"id"`
	PlanID             string          `json:"planId"`
	Level              int             `json:"level"`
	ApproverID         string          `json:"approverId"`
	Status             string          `json:"status"`
	Comments           string          `json:"comments,omitempty"`
	HasConflict        bool            `json:"hasConflict"`
	ConflictReason     string          `json:"conflictReason,omitempty"`
	ConflictingParties []ConflictParty `json:"conflictingParties,omitempty"`
	DecidedAt          time.Time       `json:"decidedAt"`
}

// ConflictParty is a snapshot of a peer's overlapping leave at decision time.
type ConflictParty struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      float64   `json:"days"`
}

type PeerConflict struct {
	SegmentID string          `json:"segmentId"`
	Parties   []ConflictParty `json:"parties"`
}

const (
	OperationalShift = "shift"
	OperationalEvent = "event"
)

// OperationalConflict is a roster or event collision. Shifts occupy the
// single day in Date; events carry their full window in Date..EndDate.
type OperationalConflict struct {
	Type    string    `json:"type"`
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
	EndDate time.Time `json:"endDate,omitempty"`
	Details string    `json:"details,omitempty"`
}

// ConflictSet is the structured payload carried by the re-entrant
// conflicts-detected signal.
type ConflictSet struct {
	Peer        []PeerConflict        `json:"peerConflicts"`
	Operational []OperationalConflict `json:"operationalConflicts"`
}

func (c ConflictSet) Empty() bool {
	return len(c.Peer) == 0 && len(c.Operational) == 0
}

// Parties flattens the peer conflicts into a snapshot list for the
// approval record.
func (c ConflictSet) Parties() []ConflictParty {
	var out []ConflictParty
	seen := make(map[string]bool)
	for _, pc := range c.Peer {
		for _, p := range pc.Parties {
			key := p.Name + p.StartDate.Format("2006-01-02") + p.EndDate.Format("2006-01-02")
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, p)
		}
	}
	return out
}
