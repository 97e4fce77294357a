package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"planivo/internal/domain/auth"
	"planivo/internal/platform/config"
)

// Seed provisions a minimal organization on first boot: one workspace,
// facility and department, the configured administrator account, two leave
// types and this year's role defaults. Runs are idempotent; an existing
// organization row short-circuits the whole thing.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM organizations").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		slog.Warn("seed skipped: SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are not set")
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orgID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO organizations (name) VALUES ($1) RETURNING id
  `, cfg.SeedOrganizationName).Scan(&orgID); err != nil {
		return err
	}

	var workspaceID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO workspaces (organization_id, name) VALUES ($1, 'Main Workspace') RETURNING id
  `, orgID).Scan(&workspaceID); err != nil {
		return err
	}

	var facilityID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO facilities (workspace_id, name) VALUES ($1, 'Main Facility') RETURNING id
  `, workspaceID).Scan(&facilityID); err != nil {
		return err
	}

	var departmentID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO departments (facility_id, name) VALUES ($1, 'Administration') RETURNING id
  `, facilityID).Scan(&departmentID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO staff (organization_id, department_id, first_name, last_name, email, password_hash, role)
    VALUES ($1, $2, 'System', 'Administrator', $3, $4, $5)
  `, orgID, departmentID, cfg.SeedAdminEmail, hash, auth.RoleSuperAdmin); err != nil {
		return err
	}

	year := time.Now().UTC().Year()
	leaveTypes := []struct {
		name        string
		defaultDays float64
	}{
		{"Annual Leave", 28},
		{"Sick Leave", 10},
	}
	roles := []string{auth.RoleIntern, auth.RoleStaff, auth.RoleDepartmentHead, auth.RoleFacilitySupervisor, auth.RoleWorkspaceSupervisor}

	for _, lt := range leaveTypes {
		var leaveTypeID string
		if err := tx.QueryRow(ctx, `
      INSERT INTO leave_types (organization_id, name) VALUES ($1, $2) RETURNING id
    `, orgID, lt.name).Scan(&leaveTypeID); err != nil {
			return err
		}
		for _, role := range roles {
			if _, err := tx.Exec(ctx, `
        INSERT INTO role_defaults (organization_id, role, leave_type_id, year, default_days)
        VALUES ($1, $2, $3, $4, $5)
      `, orgID, role, leaveTypeID, year, lt.defaultDays); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	slog.Info("seeded organization", "name", cfg.SeedOrganizationName, "admin", cfg.SeedAdminEmail)
	return nil
}
