package org

import "time"

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LeaveMode string    `json:"leaveMode"`
	CreatedAt time.Time `json:"createdAt"`
}

type Workspace struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
}

type Facility struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
}

type Department struct {
	ID         string `json:"id"`
	FacilityID string `json:"facilityId"`
	Name       string `json:"name"`
}

// StaffProfile is the resolved identity the leave core consumes: the staff
// member's role plus their position in the workspace → facility → department
// containment chain.
type StaffProfile struct {
	StaffID        string `json:"staffId"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	DepartmentID   string `json:"departmentId"`
	FacilityID     string `json:"facilityId"`
	WorkspaceID    string `json:"workspaceId"`
}
