package vault

import (
	"fmt"
	"math/bits"
)

// Snapshot is a copy of the ledger's mutable state, suitable for durable
// journaling and for rebuilding a ledger at process start.
type Snapshot struct {
	Balances        map[string]uint64
	TotalDeposited  uint64
	DepositCount    uint64
	WithdrawalCount uint64
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() Snapshot {
	balances := make(map[string]uint64, len(l.balances))
	for owner, balance := range l.balances {
		balances[owner] = balance
	}
	return Snapshot{
		Balances:        balances,
		TotalDeposited:  l.totalDeposited,
		DepositCount:    l.depositCount,
		WithdrawalCount: l.withdrawalCount,
	}
}

// Restore builds a ledger from previously journaled state. The snapshot is
// re-validated against the ledger invariants before it is accepted: the
// total must equal the sum of balances and must not exceed the cap.
func Restore(withdrawLimit, bankCap uint64, transfer Transferer, snap Snapshot) (*Ledger, error) {
	l, err := New(withdrawLimit, bankCap, transfer)
	if err != nil {
		return nil, err
	}

	var sum uint64
	for owner, balance := range snap.Balances {
		next, carry := bits.Add64(sum, balance, 0)
		if carry != 0 {
			return nil, fmt.Errorf("%w: balance sum overflows at owner %s", ErrCorruptState, owner)
		}
		sum = next
		l.balances[owner] = balance
	}

	if sum != snap.TotalDeposited {
		return nil, fmt.Errorf("%w: total %d does not match balance sum %d",
			ErrCorruptState, snap.TotalDeposited, sum)
	}
	if snap.TotalDeposited > bankCap {
		return nil, fmt.Errorf("%w: total %d exceeds bank cap %d",
			ErrCorruptState, snap.TotalDeposited, bankCap)
	}

	l.totalDeposited = snap.TotalDeposited
	l.depositCount = snap.DepositCount
	l.withdrawalCount = snap.WithdrawalCount
	return l, nil
}
