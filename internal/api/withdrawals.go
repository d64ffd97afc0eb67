package api

import (
	"context"
	"errors"

	"vault-ledger-go/internal/models"
	"vault-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Withdraw debits an owner's vault, releases the value through the transfer
// backend, and journals the committed operation. A transfer failure is fully
// rolled back inside the ledger before it surfaces here, so a failed result
// means nothing moved.
func (s *LedgerService) Withdraw(ctx context.Context, owner string, amount uint64, reference string) (*models.WithdrawalResult, error) {
	if owner == "" {
		return &models.WithdrawalResult{
			Success: false,
			Error:   "owner cannot be empty",
		}, nil
	}

	zap.L().Info("Processing withdrawal",
		zap.String("owner", owner),
		zap.Uint64("amount", amount),
		zap.String("reference", reference))

	receipt, err := s.ledger.Withdraw(ctx, owner, amount)
	if err != nil {
		zap.L().Warn("Withdrawal rejected",
			zap.String("owner", owner),
			zap.Uint64("amount", amount),
			zap.Error(err))
		return &models.WithdrawalResult{
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
	if err := s.journal.RecordWithdrawal(ctx, store.RecordParams{
		Owner:        owner,
		Amount:       amount,
		OpIndex:      receipt.Index,
		BalanceAfter: receipt.NewBalance,
		TotalAfter:   receipt.TotalDeposited,
		Reference:    reference,
	}); err != nil {
		if errors.Is(err, store.ErrDuplicateEntry) {
			duplicate = true
			zap.L().Info("Withdrawal already journaled",
				zap.String("owner", owner),
				zap.String("reference", reference))
		} else {
			zap.L().Error("Failed to journal withdrawal",
				zap.String("owner", owner),
				zap.Uint64("amount", amount),
				zap.String("reference", reference),
				zap.Error(err))
		}
	}

	return &models.WithdrawalResult{
		Success:         true,
		Owner:           owner,
		Amount:          amount,
		NewBalance:      receipt.NewBalance,
		TotalDeposited:  receipt.TotalDeposited,
		WithdrawalIndex: receipt.Index,
		Duplicate:       duplicate,
	}, nil
}
