package models

import "time"

// JournalEntry represents one immutable audit record of a committed
// vault operation (cold data, never updated after insert).
type JournalEntry struct {
	Id           string    `db:"id"`
	Owner        string    `db:"owner"`
	Kind         string    `db:"kind"` // "deposit", "withdrawal"
	Amount       uint64    `db:"amount"`
	BalanceAfter uint64    `db:"balance_after"`
	TotalAfter   uint64    `db:"total_after"`
	OpIndex      uint64    `db:"op_index"`
	Reference    string    `db:"reference"`
	CreatedAt    time.Time `db:"created_at"`
	RecordedAt   time.Time `db:"recorded_at"`
}
