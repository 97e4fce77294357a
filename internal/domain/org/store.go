package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"planivo/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// StaffProfile resolves a staff member's role and containment chain. The
// facility and workspace come from the department's ancestry, not from the
// staff row, so moving a department re-homes its staff automatically.
func (s *Store) StaffProfile(ctx context.Context, staffID string) (StaffProfile, error) {
	var p StaffProfile
	err := s.DB.QueryRow(ctx, `
    SELECT st.id, st.organization_id, st.first_name || ' ' || st.last_name, st.email, st.role,
           st.department_id, d.facility_id, f.workspace_id
    FROM staff st
    JOIN departments d ON d.id = st.department_id
    JOIN facilities f ON f.id = d.facility_id
    WHERE st.id = $1
  `, staffID).Scan(&p.StaffID, &p.OrganizationID, &p.Name, &p.Email, &p.Role, &p.DepartmentID, &p.FacilityID, &p.WorkspaceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	if err != nil {
		return p, err
	}
	return p, nil
}

// LeaveMode returns the organization-level toggle controlling whether balance
// enforcement is active.
func (s *Store) LeaveMode(ctx context.Context, organizationID string) (string, error) {
	var mode string
	err := s.DB.QueryRow(ctx, `
    SELECT leave_mode FROM organizations WHERE id = $1
  `, organizationID).Scan(&mode)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("organization %s: %w", organizationID, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return mode, nil
}

func (s *Store) SetLeaveMode(ctx context.Context, organizationID, mode string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE organizations SET leave_mode = $1 WHERE id = $2
  `, mode, organizationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organization %s: %w", organizationID, ErrNotFound)
	}
	return nil
}
