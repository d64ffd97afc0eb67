package api

import (
	"context"
	"errors"

	"vault-ledger-go/internal/models"
	"vault-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deposit credits an owner's vault and journals the committed operation.
// The reference is the idempotency key for the journal entry; when empty a
// fresh one is generated. A journal failure never unwinds the ledger: the
// in-memory state is the source of truth and the gap is surfaced in the log.
func (s *LedgerService) Deposit(ctx context.Context, owner string, amount uint64, reference string) (*models.DepositResult, error) {
	if owner == "" {
		return &models.DepositResult{
			Success: false,
			Error:   "owner cannot be empty",
		}, nil
	}

	zap.L().Info("Processing deposit",
		zap.String("owner", owner),
		zap.Uint64("amount", amount),
		zap.String("reference", reference))

	receipt, err := s.ledger.Deposit(ctx, owner, amount)
	if err != nil {
		zap.L().Warn("Deposit rejected",
			zap.String("owner", owner),
			zap.Uint64("amount", amount),
			zap.Error(err))
		return &models.DepositResult{
			Success: false,
			Owner:   owner,
			Amount:  amount,
			Error:   err.Error(),
		}, nil
	}

	if reference == "" {
		reference = uuid.New().String()
	}
	duplicate := false
	if err := s.journal.RecordDeposit(ctx, store.RecordParams{
		Owner:        owner,
		Amount:       amount,
		OpIndex:      receipt.Index,
		BalanceAfter: receipt.NewBalance,
		TotalAfter:   receipt.TotalDeposited,
		Reference:    reference,
	}); err != nil {
		if errors.Is(err, store.ErrDuplicateEntry) {
			duplicate = true
			zap.L().Info("Deposit already journaled",
				zap.String("owner", owner),
				zap.String("reference", reference))
		} else {
			zap.L().Error("Failed to journal deposit",
				zap.String("owner", owner),
				zap.Uint64("amount", amount),
				zap.String("reference", reference),
				zap.Error(err))
		}
	}

	return &models.DepositResult{
		Success:        true,
		Owner:          owner,
		Amount:         amount,
		NewBalance:     receipt.NewBalance,
		TotalDeposited: receipt.TotalDeposited,
		DepositIndex:   receipt.Index,
		Duplicate:      duplicate,
	}, nil
}
