package vault

import (
	"errors"
	"fmt"
)

// Sentinel errors for ledger operations. Payload-carrying error types below
// unwrap to their sentinel, so callers can branch with errors.Is and inspect
// the structured fields with errors.As.
var (
	ErrInvalidConfiguration = errors.New("invalid ledger configuration")
	ErrZeroAmount           = errors.New("amount must be positive")
	ErrCapExceeded          = errors.New("bank cap exceeded")
	ErrExceedsWithdrawLimit = errors.New("amount exceeds withdraw limit")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrTransferFailed       = errors.New("value transfer failed")
	ErrCorruptState         = errors.New("corrupt ledger state")
)

// CapExceededError reports a deposit that would breach the global bank cap.
// Available is the headroom remaining before the rejected deposit, not the
// overflow amount.
type CapExceededError struct {
	Attempted uint64 // total the deposit would have produced
	Available uint64 // bankCap - totalDeposited, pre-deposit
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("bank cap exceeded: attempted total %d with %d available", e.Attempted, e.Available)
}

func (e *CapExceededError) Unwrap() error { return ErrCapExceeded }

// ExceedsWithdrawLimitError reports a single withdrawal above the
// per-operation ceiling, regardless of the owner's balance.
type ExceedsWithdrawLimitError struct {
	Requested uint64
	Limit     uint64
}

func (e *ExceedsWithdrawLimitError) Error() string {
	return fmt.Sprintf("requested %d exceeds withdraw limit %d", e.Requested, e.Limit)
}

func (e *ExceedsWithdrawLimitError) Unwrap() error { return ErrExceedsWithdrawLimit }

// InsufficientBalanceError reports a withdrawal above the owner's
// credited balance.
type InsufficientBalanceError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("requested %d with only %d available", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// TransferFailedError reports that the value-transfer collaborator failed.
// All ledger effects of the surrounding withdrawal have been rolled back
// when this error is returned.
type TransferFailedError struct {
	To     string
	Amount uint64
	Err    error
}

func (e *TransferFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("value transfer of %d to %s failed: %v", e.Amount, e.To, e.Err)
	}
	return fmt.Sprintf("value transfer of %d to %s failed", e.Amount, e.To)
}

func (e *TransferFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransferFailed}
	}
	return []error{ErrTransferFailed, e.Err}
}
