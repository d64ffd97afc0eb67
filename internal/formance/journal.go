package formance

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"vault-ledger-go/internal/models"
	"vault-ledger-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

const numscriptDeposit = `vars {
  asset $asset
  number $amount
  account $owner
  string $op_index
  string $balance_after
  string $total_after
  string $reference
}

send [$asset $amount] (
  source = @world
  destination = @vaults:$owner
)

set_tx_meta("event_type", "deposit")
set_tx_meta("owner", $owner)
set_tx_meta("op_index", $op_index)
set_tx_meta("balance_after", $balance_after)
set_tx_meta("total_after", $total_after)
set_tx_meta("reference", $reference)
`

const numscriptWithdrawal = `vars {
  asset $asset
  number $amount
  account $owner
  string $op_index
  string $balance_after
  string $total_after
  string $reference
}

send [$asset $amount] (
  source = @vaults:$owner
  destination = @world
)

set_tx_meta("event_type", "withdrawal")
set_tx_meta("owner", $owner)
set_tx_meta("op_index", $op_index)
set_tx_meta("balance_after", $balance_after)
set_tx_meta("total_after", $total_after)
set_tx_meta("reference", $reference)
`

// RecordDeposit journals a committed deposit as a world -> vault posting.
func (s *Service) RecordDeposit(ctx context.Context, params store.RecordParams) error {
	return s.recordEntry(ctx, store.KindDeposit, numscriptDeposit, params)
}

// RecordWithdrawal journals a committed withdrawal as a vault -> world posting.
func (s *Service) RecordWithdrawal(ctx context.Context, params store.RecordParams) error {
	return s.recordEntry(ctx, store.KindWithdrawal, numscriptWithdrawal, params)
}

func (s *Service) recordEntry(ctx context.Context, kind, script string, params store.RecordParams) error {
	if params.Reference == "" {
		return fmt.Errorf("reference cannot be empty")
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(params.Reference),
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars: map[string]string{
					"asset":         s.asset,
					"amount":        strconv.FormatUint(params.Amount, 10),
					"owner":         params.Owner,
					"op_index":      strconv.FormatUint(params.OpIndex, 10),
					"balance_after": strconv.FormatUint(params.BalanceAfter, 10),
					"total_after":   strconv.FormatUint(params.TotalAfter, 10),
					"reference":     params.Reference,
				},
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateEntry, params.Reference)
		}
		return fmt.Errorf("error recording %s in Formance: %w", kind, err)
	}

	zap.L().Info("Journal entry recorded in Formance",
		zap.String("kind", kind),
		zap.String("owner", params.Owner),
		zap.Uint64("amount", params.Amount),
		zap.String("reference", params.Reference))
	return nil
}

// historyCollector folds transaction pages into journal entries: offset
// parseable entries are skipped, unparseable transactions are dropped
// without counting against the offset or the limit.
type historyCollector struct {
	limit   int
	offset  int
	skipped int
	entries []models.JournalEntry
}

// collect consumes one page and reports whether the limit is reached.
func (c *historyCollector) collect(txs []shared.V2Transaction) bool {
	for _, tx := range txs {
		entry, err := entryFromTransaction(tx)
		if err != nil {
			zap.L().Warn("Skipping unparseable transaction", zap.Error(err))
			continue
		}
		if c.skipped < c.offset {
			c.skipped++
			continue
		}
		c.entries = append(c.entries, *entry)
		if len(c.entries) >= c.limit {
			return true
		}
	}
	return false
}

// History returns paginated entries newest first, following the cursor
// across pages until limit entries past offset are collected. An empty
// owner selects all vault movements; every vault posting touches @world,
// so matching on it covers both kinds.
func (s *Service) History(ctx context.Context, owner string, limit, offset int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	account := "world"
	if owner != "" {
		account = vaultAccount(owner)
	}

	collector := &historyCollector{limit: limit, offset: offset}
	pageSize := int64(100)
	var cursor *string
	for {
		req := operations.V2ListTransactionsRequest{
			Ledger:   s.ledger,
			PageSize: &pageSize,
		}
		if cursor == nil {
			// The filter rides only on the first request; the cursor
			// carries it forward on later pages.
			req.RequestBody = map[string]any{
				"$or": []any{
					map[string]any{"$match": map[string]any{"source": account}},
					map[string]any{"$match": map[string]any{"destination": account}},
				},
			}
		} else {
			req.Cursor = cursor
		}

		resp, err := s.client.Ledger.V2.ListTransactions(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}

		if collector.collect(resp.V2TransactionsCursorResponse.Cursor.Data) {
			break
		}
		next := resp.V2TransactionsCursorResponse.Cursor.Next
		if next == nil || *next == "" {
			break
		}
		cursor = next
	}
	return collector.entries, nil
}

// entryFromTransaction rebuilds a journal entry from transaction metadata.
func entryFromTransaction(tx shared.V2Transaction) (*models.JournalEntry, error) {
	kind := tx.Metadata["event_type"]
	if kind != store.KindDeposit && kind != store.KindWithdrawal {
		return nil, fmt.Errorf("transaction %s has unknown event_type %q", tx.ID, kind)
	}

	amount, err := postingAmount(tx.Postings)
	if err != nil {
		return nil, err
	}
	opIndex, err := parseMetaField(tx.Metadata, "op_index")
	if err != nil {
		return nil, err
	}
	balanceAfter, err := parseMetaField(tx.Metadata, "balance_after")
	if err != nil {
		return nil, err
	}
	totalAfter, err := parseMetaField(tx.Metadata, "total_after")
	if err != nil {
		return nil, err
	}

	ref := ""
	if tx.Reference != nil {
		ref = *tx.Reference
	}

	return &models.JournalEntry{
		Id:           tx.ID.String(),
		Owner:        tx.Metadata["owner"],
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		TotalAfter:   totalAfter,
		OpIndex:      opIndex,
		Reference:    ref,
		CreatedAt:    tx.Timestamp,
		RecordedAt:   tx.Timestamp,
	}, nil
}

func parseMetaField(meta map[string]string, key string) (uint64, error) {
	raw, ok := meta[key]
	if !ok {
		return 0, fmt.Errorf("transaction metadata missing %q", key)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse metadata %s=%q: %w", key, raw, err)
	}
	return v, nil
}

// postingAmount derives the moved amount from the transaction's single posting.
func postingAmount(postings []shared.V2Posting) (uint64, error) {
	if len(postings) == 0 {
		return 0, fmt.Errorf("transaction has no postings")
	}
	amt := postings[0].Amount
	if amt == nil || !amt.IsUint64() {
		return 0, fmt.Errorf("posting amount out of uint64 range")
	}
	return amt.Uint64(), nil
}

// LoadState folds the full journal into per-owner balances and counters by
// paging newest-first: the first entry seen for an owner carries that owner's
// final balance, and the first entry of each kind carries the counter.
func (s *Service) LoadState(ctx context.Context) (*store.State, error) {
	state := &store.State{Balances: make(map[string]uint64)}
	seenOwners := make(map[string]bool)
	haveDepositCount := false
	haveWithdrawalCount := false

	pageSize := int64(100)
	var cursor *string
	for {
		req := operations.V2ListTransactionsRequest{
			Ledger:   s.ledger,
			PageSize: &pageSize,
			Cursor:   cursor,
		}
		resp, err := s.client.Ledger.V2.ListTransactions(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}

		for _, tx := range resp.V2TransactionsCursorResponse.Cursor.Data {
			entry, err := entryFromTransaction(tx)
			if err != nil {
				zap.L().Warn("Skipping unparseable transaction", zap.Error(err))
				continue
			}

			if !seenOwners[entry.Owner] {
				seenOwners[entry.Owner] = true
				if entry.BalanceAfter > 0 {
					state.Balances[entry.Owner] = entry.BalanceAfter
					state.TotalDeposited += entry.BalanceAfter
				}
			}
			switch entry.Kind {
			case store.KindDeposit:
				if !haveDepositCount {
					haveDepositCount = true
					state.DepositCount = entry.OpIndex
				}
			case store.KindWithdrawal:
				if !haveWithdrawalCount {
					haveWithdrawalCount = true
					state.WithdrawalCount = entry.OpIndex
				}
			}
		}

		next := resp.V2TransactionsCursorResponse.Cursor.Next
		if next == nil || *next == "" {
			break
		}
		cursor = next
	}

	zap.L().Info("Journal state loaded from Formance",
		zap.Int("owners", len(state.Balances)),
		zap.Uint64("total_deposited", state.TotalDeposited),
		zap.Uint64("deposit_count", state.DepositCount),
		zap.Uint64("withdrawal_count", state.WithdrawalCount))

	return state, nil
}

// ReconcileOwner verifies the owner's account volumes against the balance
// the journal metadata reports. Formance postings are consistent by
// construction, so a mismatch points at metadata written out of step with
// the postings.
func (s *Service) ReconcileOwner(ctx context.Context, owner string) error {
	account := vaultAccount(owner)

	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: account,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil // no account, nothing to reconcile
		}
		return fmt.Errorf("failed to get account volumes: %w", err)
	}

	posted := big.NewInt(0)
	if vol, ok := resp.V2AccountResponse.Data.Volumes[s.asset]; ok {
		if vol.Balance != nil {
			posted.Set(vol.Balance)
		} else if vol.Input != nil {
			posted.Set(vol.Input)
			if vol.Output != nil {
				posted.Sub(posted, vol.Output)
			}
		}
	}

	entries, err := s.History(ctx, owner, 1, 0)
	if err != nil {
		return err
	}
	var reported uint64
	if len(entries) > 0 {
		reported = entries[0].BalanceAfter
	}

	if !posted.IsUint64() || posted.Uint64() != reported {
		zap.L().Error("Balance reconciliation mismatch",
			zap.String("owner", owner),
			zap.String("posted", posted.String()),
			zap.Uint64("reported", reported))
		return fmt.Errorf("%w: owner %s posted %s, journal metadata reports %d",
			store.ErrReconcileMismatch, owner, posted.String(), reported)
	}

	zap.L().Info("Balance reconciled",
		zap.String("owner", owner),
		zap.Uint64("balance", reported))
	return nil
}
