package vacation

import (
	"planivo/internal/domain/auth"
	"planivo/internal/domain/org"
)

// Scope is the single approval tier a plan is routed to. It is derived once
// from the requester's own role: ordinary staff route to their department
// head, while higher-tier self-requests escalate one tier up. There is no
// sequential multi-gate pipeline; one decision at the routed scope resolves
// the plan, and the override authority can decide any plan regardless of
// scope.
type Scope int

const (
	ScopeDepartment Scope = iota + 1
	ScopeFacility
	ScopeWorkspace
	ScopeOverride
)

func (s Scope) String() string {
	switch s {
	case ScopeDepartment:
		return "department"
	case ScopeFacility:
		return "facility"
	case ScopeWorkspace:
		return "workspace"
	case ScopeOverride:
		return "override"
	}
	return "unknown"
}

// Level maps a scope onto the 1..3 approval-record levels. Override-authority
// decisions are recorded at level 3.
func (s Scope) Level() int {
	switch s {
	case ScopeFacility:
		return 2
	case ScopeWorkspace, ScopeOverride:
		return 3
	default:
		return 1
	}
}

// RoutingScopeFor derives the decision scope from the requester's role.
func RoutingScopeFor(requesterRole string) Scope {
	switch requesterRole {
	case auth.RoleDepartmentHead:
		return ScopeFacility
	case auth.RoleFacilitySupervisor:
		return ScopeWorkspace
	case auth.RoleWorkspaceSupervisor, auth.RoleSuperAdmin:
		return ScopeOverride
	default:
		return ScopeDepartment
	}
}

// Authorized reports whether the actor may decide a plan owned by the
// requester at the given scope. The override authority may decide anything;
// everyone else must hold the supervising role for the matching unit of the
// requester's containment chain.
func Authorized(actor, requester org.StaffProfile, scope Scope) bool {
	if actor.Role == auth.RoleSuperAdmin {
		return true
	}
	switch scope {
	case ScopeDepartment:
		return actor.Role == auth.RoleDepartmentHead && actor.DepartmentID == requester.DepartmentID
	case ScopeFacility:
		return actor.Role == auth.RoleFacilitySupervisor && actor.FacilityID == requester.FacilityID
	case ScopeWorkspace:
		return actor.Role == auth.RoleWorkspaceSupervisor && actor.WorkspaceID == requester.WorkspaceID
	case ScopeOverride:
		return false
	}
	return false
}

// HasAuthorityOver reports whether a manager may act directly on a
// subordinate's behalf: the manager's tier must supervise the unit the
// subordinate belongs to.
func HasAuthorityOver(manager, subordinate org.StaffProfile) bool {
	switch manager.Role {
	case auth.RoleSuperAdmin:
		return true
	case auth.RoleWorkspaceSupervisor:
		return manager.WorkspaceID == subordinate.WorkspaceID
	case auth.RoleFacilitySupervisor:
		return manager.FacilityID == subordinate.FacilityID
	case auth.RoleDepartmentHead:
		return manager.DepartmentID == subordinate.DepartmentID && manager.StaffID != subordinate.StaffID
	}
	return false
}
