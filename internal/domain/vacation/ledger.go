package vacation

import (
	"context"
	"fmt"
)

// EffectiveEntitlement merges the individual balance row with the role-level
// default. The merge is recomputed on every read; no row is materialized
// until an administrator edits it or a debit lands.
func (s *Service) EffectiveEntitlement(ctx context.Context, organizationID, staffID, leaveTypeID string, year int) (Balance, error) {
	profile, err := s.dir.StaffProfile(ctx, staffID)
	if err != nil {
		return Balance{}, err
	}
	if profile.OrganizationID != organizationID {
		return Balance{}, fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	return effectiveEntitlement(ctx, s.store, organizationID, profile.Role, staffID, leaveTypeID, year)
}

func effectiveEntitlement(ctx context.Context, store StoreAPI, organizationID, role, staffID, leaveTypeID string, year int) (Balance, error) {
	row, found, err := store.BalanceRow(ctx, staffID, leaveTypeID, year)
	if err != nil {
		return Balance{}, err
	}
	if found {
		return row, nil
	}

	defaultDays, _, err := store.RoleDefaultDays(ctx, organizationID, role, leaveTypeID, year)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		StaffID:     staffID,
		LeaveTypeID: leaveTypeID,
		Year:        year,
		Accrued:     defaultDays,
		Used:        0,
		Balance:     defaultDays,
	}, nil
}

// SetBalanceOverride creates or updates the individual override row. The
// caller is told explicitly when the new accrual would drive the balance
// negative; nothing is silently clamped.
func (s *Service) SetBalanceOverride(ctx context.Context, staffID, leaveTypeID string, year int, newAccrued float64) (Balance, error) {
	if newAccrued < 0 {
		return Balance{}, &InputError{Field: "accrued", Reason: "must not be negative"}
	}

	row, _, err := s.store.BalanceRow(ctx, staffID, leaveTypeID, year)
	if err != nil {
		return Balance{}, err
	}
	if newAccrued < row.Used {
		return Balance{}, &InputError{Field: "accrued", Reason: fmt.Sprintf("below %.1f days already used", row.Used)}
	}

	next := Balance{
		StaffID:     staffID,
		LeaveTypeID: leaveTypeID,
		Year:        year,
		Accrued:     newAccrued,
		Used:        row.Used,
		Balance:     newAccrued - row.Used,
	}
	if err := s.store.UpsertBalanceOverride(ctx, next); err != nil {
		return Balance{}, err
	}
	return next, nil
}

// RoleDefaultFor reads back a single role-level entitlement; found is false
// when no default has been configured for the combination.
func (s *Service) RoleDefaultFor(ctx context.Context, organizationID, role, leaveTypeID string, year int) (RoleDefault, bool, error) {
	days, found, err := s.store.RoleDefaultDays(ctx, organizationID, role, leaveTypeID, year)
	if err != nil || !found {
		return RoleDefault{}, false, err
	}
	return RoleDefault{
		OrganizationID: organizationID,
		Role:           role,
		LeaveTypeID:    leaveTypeID,
		Year:           year,
		DefaultDays:    days,
	}, true, nil
}

func (s *Service) SetRoleDefault(ctx context.Context, rd RoleDefault) error {
	if rd.DefaultDays < 0 {
		return &InputError{Field: "defaultDays", Reason: "must not be negative"}
	}
	return s.store.SetRoleDefault(ctx, rd)
}

// debit runs inside the decide transaction: it materializes the balance row
// from the effective entitlement if needed, then applies the conditional
// update. The same transaction carries the status transition, so a plan can
// never be approved with its debit pending or lost.
func debit(ctx context.Context, store StoreAPI, organizationID, role, staffID, leaveTypeID string, year int, days float64) error {
	effective, err := effectiveEntitlement(ctx, store, organizationID, role, staffID, leaveTypeID, year)
	if err != nil {
		return err
	}
	if err := store.EnsureBalanceRow(ctx, staffID, leaveTypeID, year, effective.Accrued); err != nil {
		return err
	}
	ok, err := store.DebitBalance(ctx, staffID, leaveTypeID, year, days)
	if err != nil {
		return err
	}
	if !ok {
		row, _, err := store.BalanceRow(ctx, staffID, leaveTypeID, year)
		if err != nil {
			return err
		}
		return &InsufficientBalanceError{
			StaffID:     staffID,
			LeaveTypeID: leaveTypeID,
			Year:        year,
			Available:   row.Balance,
			Requested:   days,
		}
	}
	return nil
}
