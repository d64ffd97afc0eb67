package transfer

import (
	"context"

	"vault-ledger-go/internal/vault"

	"go.uber.org/zap"
)

// Compile-time check: *Log must satisfy vault.Transferer.
var _ vault.Transferer = (*Log)(nil)

// Log is a value-transfer collaborator that records each release in the
// application log and always succeeds. Default backend for local runs where
// no real custody rail is wired.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (l *Log) Transfer(ctx context.Context, to string, amount uint64) error {
	zap.L().Info("Value transfer (log backend)",
		zap.String("to", to),
		zap.Uint64("amount", amount))
	return nil
}
