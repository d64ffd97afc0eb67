package vault

// DepositEvent is emitted after a deposit's state effects are fully applied.
type DepositEvent struct {
	Owner  string
	Amount uint64
	Index  uint64 // deposit_count value assigned to this deposit
}

// WithdrawalEvent is emitted after a withdrawal's external transfer succeeds.
type WithdrawalEvent struct {
	Owner  string
	Amount uint64
	Index  uint64 // withdrawal_count value assigned to this withdrawal
}

// Observer consumes the ledger's event stream. Observers are invoked
// synchronously, in subscription order, and only after the emitting
// operation's state effects are committed -- an observer reading the ledger
// sees the post-operation state.
type Observer interface {
	OnDeposit(DepositEvent)
	OnWithdrawal(WithdrawalEvent)
}

// Subscribe registers an observer for all subsequent deposit and
// withdrawal events.
func (l *Ledger) Subscribe(o Observer) {
	l.observers = append(l.observers, o)
}

func (l *Ledger) notifyDeposit(ev DepositEvent) {
	for _, o := range l.observers {
		o.OnDeposit(ev)
	}
}

func (l *Ledger) notifyWithdrawal(ev WithdrawalEvent) {
	for _, o := range l.observers {
		o.OnWithdrawal(ev)
	}
}
