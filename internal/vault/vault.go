package vault

import (
	"context"
	"math/bits"

	"go.uber.org/zap"
)

// Transferer is the external value-transfer collaborator. It moves the
// native asset to an owner synchronously and reports failure via a non-nil
// error. The ledger never assumes a transfer succeeds; its result gates
// whether a withdrawal's effects stay committed or are rolled back.
type Transferer interface {
	Transfer(ctx context.Context, to string, amount uint64) error
}

// Ledger is a single-asset custodial balance table with a global intake cap
// and a per-withdrawal ceiling. It is not safe for concurrent use; callers
// serialize operations. It IS safe against reentrancy: a Transferer that
// calls back into the ledger observes the already-applied withdrawal
// effects (checks-effects-interactions ordering).
type Ledger struct {
	withdrawLimit uint64
	bankCap       uint64

	totalDeposited  uint64
	depositCount    uint64
	withdrawalCount uint64
	balances        map[string]uint64

	// Sum of withdrawal amounts whose transfer is still in flight. Those
	// amounts are already off totalDeposited but may return on rollback,
	// so deposits must not hand out their headroom.
	inFlight uint64

	transfer  Transferer
	observers []Observer
}

// Receipt describes the committed effects of a successful operation.
type Receipt struct {
	Owner          string
	Amount         uint64
	NewBalance     uint64 // owner's balance after the operation
	TotalDeposited uint64 // ledger-wide total after the operation
	Index          uint64 // value of the corresponding operation counter
}

// New creates a ledger with zeroed balances and counters. Both limits must
// be strictly positive and the transfer collaborator must be present.
func New(withdrawLimit, bankCap uint64, transfer Transferer) (*Ledger, error) {
	if withdrawLimit == 0 || bankCap == 0 || transfer == nil {
		return nil, ErrInvalidConfiguration
	}
	return &Ledger{
		withdrawLimit: withdrawLimit,
		bankCap:       bankCap,
		balances:      make(map[string]uint64),
		transfer:      transfer,
	}, nil
}

// Deposit credits amount to owner's vault. The value itself is assumed
// received atomically with the call; no external transfer happens here.
func (l *Ledger) Deposit(ctx context.Context, owner string, amount uint64) (*Receipt, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}

	// totalDeposited + inFlight <= bankCap always holds (withdrawals move
	// value between the two, never grow the sum), so available never
	// underflows and the comparison cannot wrap even when total + amount
	// would. Reserving the in-flight amounts keeps a later rollback from
	// pushing the total above the cap.
	reserved := l.totalDeposited + l.inFlight
	available := l.bankCap - reserved
	if amount > available {
		return nil, &CapExceededError{
			Attempted: saturatingAdd(reserved, amount),
			Available: available,
		}
	}

	l.balances[owner] += amount
	l.totalDeposited += amount
	l.depositCount++

	receipt := &Receipt{
		Owner:          owner,
		Amount:         amount,
		NewBalance:     l.balances[owner],
		TotalDeposited: l.totalDeposited,
		Index:          l.depositCount,
	}

	l.notifyDeposit(DepositEvent{Owner: owner, Amount: amount, Index: receipt.Index})

	zap.L().Info("Deposit credited",
		zap.String("owner", owner),
		zap.Uint64("amount", amount),
		zap.Uint64("new_balance", receipt.NewBalance),
		zap.Uint64("total_deposited", receipt.TotalDeposited),
		zap.Uint64("deposit_index", receipt.Index))

	return receipt, nil
}

// Withdraw debits amount from owner's vault and releases it through the
// transfer collaborator. All state effects are applied before the transfer
// is attempted; if the transfer fails they are rolled back as a unit and
// the ledger looks exactly as it did before the call.
func (l *Ledger) Withdraw(ctx context.Context, owner string, amount uint64) (*Receipt, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	// The per-operation limit is checked before the balance, so an
	// over-limit request is rejected with the limit error even when the
	// owner holds enough.
	if amount > l.withdrawLimit {
		return nil, &ExceedsWithdrawLimitError{Requested: amount, Limit: l.withdrawLimit}
	}
	balance := l.balances[owner]
	if amount > balance {
		return nil, &InsufficientBalanceError{Requested: amount, Available: balance}
	}

	// Effects before the external interaction: a reentrant call arriving
	// through the transfer sees the already-decremented balance and cannot
	// double-spend.
	l.balances[owner] = balance - amount
	l.totalDeposited -= amount
	l.withdrawalCount++
	index := l.withdrawalCount

	l.inFlight += amount
	err := l.transfer.Transfer(ctx, owner, amount)
	l.inFlight -= amount
	if err != nil {
		l.balances[owner] += amount
		l.totalDeposited += amount
		l.withdrawalCount--

		zap.L().Warn("Value transfer failed, withdrawal rolled back",
			zap.String("owner", owner),
			zap.Uint64("amount", amount),
			zap.Error(err))

		return nil, &TransferFailedError{To: owner, Amount: amount, Err: err}
	}

	receipt := &Receipt{
		Owner:          owner,
		Amount:         amount,
		NewBalance:     l.balances[owner],
		TotalDeposited: l.totalDeposited,
		Index:          index,
	}

	l.notifyWithdrawal(WithdrawalEvent{Owner: owner, Amount: amount, Index: index})

	zap.L().Info("Withdrawal released",
		zap.String("owner", owner),
		zap.Uint64("amount", amount),
		zap.Uint64("new_balance", receipt.NewBalance),
		zap.Uint64("total_deposited", receipt.TotalDeposited),
		zap.Uint64("withdrawal_index", index))

	return receipt, nil
}

// BalanceOf returns owner's current balance, zero for unseen owners.
func (l *Ledger) BalanceOf(owner string) uint64 { return l.balances[owner] }

// DepositCount returns the number of successful deposits.
func (l *Ledger) DepositCount() uint64 { return l.depositCount }

// WithdrawalCount returns the number of successful withdrawals.
func (l *Ledger) WithdrawalCount() uint64 { return l.withdrawalCount }

// TotalDeposited returns the sum of all owners' balances.
func (l *Ledger) TotalDeposited() uint64 { return l.totalDeposited }

// WithdrawLimit returns the immutable per-withdrawal ceiling.
func (l *Ledger) WithdrawLimit() uint64 { return l.withdrawLimit }

// BankCap returns the immutable global intake cap.
func (l *Ledger) BankCap() uint64 { return l.bankCap }

// saturatingAdd reports a + b, clamped to MaxUint64 instead of wrapping.
// Used only for error payloads; cap comparisons never rely on the sum.
func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 1<<64 - 1
	}
	return sum
}
