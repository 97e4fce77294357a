package vacation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("actor not authorized for this scope")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrNoSegmentsSelected  = errors.New("no segments selected")
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid plan state")
)

// InsufficientBalanceError reports the shortfall that blocked a debit.
type InsufficientBalanceError struct {
	StaffID     string
	LeaveTypeID string
	Year        int
	Available   float64
	Requested   float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for staff %s: available %.1f, requested %.1f",
		e.StaffID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// InputError wraps ErrInvalidInput with a field-level reason.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
