package auth

// Role names are fixed reference data: three organizational tiers plus the
// top-level override authority.
const (
	RoleIntern              = "intern"
	RoleStaff               = "staff"
	RoleDepartmentHead      = "department_head"
	RoleFacilitySupervisor  = "facility_supervisor"
	RoleWorkspaceSupervisor = "workspace_supervisor"
	RoleSuperAdmin          = "super_admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleIntern, RoleStaff, RoleDepartmentHead, RoleFacilitySupervisor, RoleWorkspaceSupervisor, RoleSuperAdmin:
		return true
	}
	return false
}

// Tier returns the approval tier a role occupies: 0 for rank-and-file staff,
// 1 department, 2 facility, 3 workspace, 4 override authority.
func Tier(role string) int {
	switch role {
	case RoleDepartmentHead:
		return 1
	case RoleFacilitySupervisor:
		return 2
	case RoleWorkspaceSupervisor:
		return 3
	case RoleSuperAdmin:
		return 4
	default:
		return 0
	}
}
