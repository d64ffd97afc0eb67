package api

import (
	"context"
	"sort"

	"vault-ledger-go/internal/models"
)

// BalanceOf returns an owner's current vault balance, zero for unseen owners.
func (s *LedgerService) BalanceOf(owner string) uint64 {
	return s.ledger.BalanceOf(owner)
}

// DepositCount returns the number of successful deposits.
func (s *LedgerService) DepositCount() uint64 { return s.ledger.DepositCount() }

// WithdrawalCount returns the number of successful withdrawals.
func (s *LedgerService) WithdrawalCount() uint64 { return s.ledger.WithdrawalCount() }

// TotalDeposited returns the ledger-wide custodial total.
func (s *LedgerService) TotalDeposited() uint64 { return s.ledger.TotalDeposited() }

// WithdrawLimit returns the per-operation withdrawal ceiling.
func (s *LedgerService) WithdrawLimit() uint64 { return s.ledger.WithdrawLimit() }

// BankCap returns the global intake cap.
func (s *LedgerService) BankCap() uint64 { return s.ledger.BankCap() }

// AllBalances returns every non-zero vault balance, sorted by owner.
func (s *LedgerService) AllBalances() []models.OwnerBalance {
	snap := s.ledger.Snapshot()
	balances := make([]models.OwnerBalance, 0, len(snap.Balances))
	for owner, balance := range snap.Balances {
		if balance == 0 {
			continue
		}
		balances = append(balances, models.OwnerBalance{Owner: owner, Balance: balance})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Owner < balances[j].Owner })
	return balances
}

// History returns journaled entries for an owner, newest first. An empty
// owner selects entries across all owners.
func (s *LedgerService) History(ctx context.Context, owner string, limit, offset int) ([]models.JournalEntry, error) {
	return s.journal.History(ctx, owner, limit, offset)
}

// ReconcileOwner checks the journal's mirrored balance for an owner against
// its recorded movements.
func (s *LedgerService) ReconcileOwner(ctx context.Context, owner string) error {
	return s.journal.ReconcileOwner(ctx, owner)
}
