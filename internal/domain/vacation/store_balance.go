package vacation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) BalanceRow(ctx context.Context, staffID, leaveTypeID string, year int) (Balance, bool, error) {
	var b Balance
	err := s.DB.QueryRow(ctx, `
    SELECT staff_id, leave_type_id, year, accrued, used, balance
    FROM leave_balances
    WHERE staff_id = $1 AND leave_type_id = $2 AND year = $3
  `, staffID, leaveTypeID, year).Scan(&b.StaffID, &b.LeaveTypeID, &b.Year, &b.Accrued, &b.Used, &b.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, false, nil
	}
	if err != nil {
		return Balance{}, false, err
	}
	return b, true, nil
}

func (s *Store) RoleDefaultDays(ctx context.Context, organizationID, role, leaveTypeID string, year int) (float64, bool, error) {
	var days float64
	err := s.DB.QueryRow(ctx, `
    SELECT default_days
    FROM role_defaults
    WHERE organization_id = $1 AND role = $2 AND leave_type_id = $3 AND year = $4
  `, organizationID, role, leaveTypeID, year).Scan(&days)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return days, true, nil
}

func (s *Store) SetRoleDefault(ctx context.Context, rd RoleDefault) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO role_defaults (organization_id, role, leave_type_id, year, default_days)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (organization_id, role, leave_type_id, year) DO UPDATE SET default_days = EXCLUDED.default_days
  `, rd.OrganizationID, rd.Role, rd.LeaveTypeID, rd.Year, rd.DefaultDays)
	return err
}

func (s *Store) UpsertBalanceOverride(ctx context.Context, b Balance) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (staff_id, leave_type_id, year, accrued, used, balance)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (staff_id, leave_type_id, year) DO UPDATE SET
      accrued = EXCLUDED.accrued,
      balance = EXCLUDED.accrued - leave_balances.used,
      updated_at = now()
  `, b.StaffID, b.LeaveTypeID, b.Year, b.Accrued, b.Used, b.Balance)
	return err
}

// EnsureBalanceRow materializes the override row on first debit, seeded from
// the effective role default. Does nothing if a row already exists.
func (s *Store) EnsureBalanceRow(ctx context.Context, staffID, leaveTypeID string, year int, accrued float64) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (staff_id, leave_type_id, year, accrued, used, balance)
    VALUES ($1,$2,$3,$4,0,$4)
    ON CONFLICT (staff_id, leave_type_id, year) DO NOTHING
  `, staffID, leaveTypeID, year, accrued)
	return err
}

// DebitBalance is the single atomic read-modify-write guarding entitlement:
// the conditional WHERE keeps two concurrent approvals from both passing a
// stale balance check. Returns false when the remaining balance cannot cover
// the debit.
func (s *Store) DebitBalance(ctx context.Context, staffID, leaveTypeID string, year int, days float64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_balances
    SET used = used + $4, balance = balance - $4, updated_at = now()
    WHERE staff_id = $1 AND leave_type_id = $2 AND year = $3 AND balance >= $4
  `, staffID, leaveTypeID, year, days)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
