package store

import (
	"context"
	"errors"

	"vault-ledger-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicateEntry         = errors.New("duplicate journal entry")
	ErrEntryNotFound          = errors.New("journal entry not found")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrReconcileMismatch      = errors.New("mirrored balance does not match journaled entries")
)

// Journal entry kinds.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
)

// RecordParams captures one committed ledger operation for journaling.
// BalanceAfter and TotalAfter are the post-operation values reported by the
// ledger; the journal persists them verbatim and never recomputes them.
type RecordParams struct {
	Owner        string
	Amount       uint64
	OpIndex      uint64 // deposit or withdrawal counter value for this op
	BalanceAfter uint64
	TotalAfter   uint64
	Reference    string // caller-supplied idempotency key, unique per entry
}

// State is the aggregate journaled state, used to rebuild the in-memory
// ledger at process start.
type State struct {
	Balances        map[string]uint64
	TotalDeposited  uint64
	DepositCount    uint64
	WithdrawalCount uint64
}

// Journal defines the contract that every backend (SQLite, Formance, ...)
// must satisfy. Implementations must reject a reused Reference with
// ErrDuplicateEntry so replayed records stay idempotent.
type Journal interface {
	RecordDeposit(ctx context.Context, params RecordParams) error
	RecordWithdrawal(ctx context.Context, params RecordParams) error

	// History returns owner's entries newest first. An empty owner selects
	// entries for all owners.
	History(ctx context.Context, owner string, limit, offset int) ([]models.JournalEntry, error)

	// LoadState folds the full journal into per-owner balances and counters.
	LoadState(ctx context.Context) (*State, error)

	// ReconcileOwner verifies owner's mirrored balance against the sum of
	// journaled entries, returning ErrReconcileMismatch on divergence.
	ReconcileOwner(ctx context.Context, owner string) error

	Close()
}
