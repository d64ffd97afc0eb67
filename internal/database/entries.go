package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"vault-ledger-go/internal/models"
	"vault-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Amounts are persisted as exact decimal strings so the full uint64 range
// survives the round trip (SQLite INTEGER is signed 64-bit).

func amountToString(v uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0).String()
}

func amountFromString(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	if d.IsNegative() || !d.IsInteger() {
		return 0, fmt.Errorf("amount %q is not a non-negative integer", s)
	}
	bi := d.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %q exceeds uint64 range", s)
	}
	return bi.Uint64(), nil
}

// RecordDeposit journals a committed deposit and advances the owner's
// balance mirror.
func (s *Service) RecordDeposit(ctx context.Context, params store.RecordParams) error {
	return s.recordEntry(ctx, store.KindDeposit, params)
}

// RecordWithdrawal journals a committed withdrawal and advances the owner's
// balance mirror.
func (s *Service) RecordWithdrawal(ctx context.Context, params store.RecordParams) error {
	return s.recordEntry(ctx, store.KindWithdrawal, params)
}

// recordEntry atomically inserts the audit entry and updates the hot
// balance mirror. The mirror is set to the ledger-reported BalanceAfter, not
// recomputed, so the journal mirrors the source of truth instead of
// re-deriving it.
func (s *Service) recordEntry(ctx context.Context, kind string, params store.RecordParams) error {
	if params.Reference == "" {
		return fmt.Errorf("reference cannot be empty")
	}

	zap.L().Info("Recording journal entry",
		zap.String("kind", kind),
		zap.String("owner", params.Owner),
		zap.Uint64("amount", params.Amount),
		zap.String("reference", params.Reference))

	// Check for duplicate reference before opening the transaction.
	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateReference, params.Reference).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate journal reference detected, skipping",
			zap.String("reference", params.Reference),
			zap.String("existing_entry_id", existingId))
		return fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateEntry, params.Reference)
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for duplicate entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentBalance string
	var version int64
	err = tx.QueryRowContext(ctx, queryGetVaultBalance, params.Owner).Scan(&currentBalance, &version)
	if err == sql.ErrNoRows {
		if _, err := tx.ExecContext(ctx, queryInsertVaultBalance, params.Owner, "0"); err != nil {
			return fmt.Errorf("failed to create balance row: %w", err)
		}
		version = 1
	} else if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	entryId := uuid.New().String()
	now := time.Now()
	_, err = tx.ExecContext(ctx, queryInsertVaultEntry,
		entryId, params.Owner, kind,
		amountToString(params.Amount),
		amountToString(params.BalanceAfter),
		amountToString(params.TotalAfter),
		params.OpIndex, params.Reference, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	// Update the mirror with optimistic locking.
	result, err := tx.ExecContext(ctx, queryUpdateVaultBalance,
		amountToString(params.BalanceAfter), entryId, params.Owner, version)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Journal entry recorded",
		zap.String("entry_id", entryId),
		zap.String("owner", params.Owner),
		zap.String("kind", kind),
		zap.Uint64("balance_after", params.BalanceAfter))

	return nil
}

// History returns paginated journal entries for an owner, newest first. An
// empty owner selects entries across all owners.
func (s *Service) History(ctx context.Context, owner string, limit, offset int) ([]models.JournalEntry, error) {
	zap.L().Debug("Getting journal history",
		zap.String("owner", owner),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	var rows *sql.Rows
	var err error
	if owner == "" {
		rows, err = s.db.QueryContext(ctx, queryGetHistoryAll, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, queryGetHistory, owner, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	var amountStr, balanceAfterStr, totalAfterStr string
	err := rows.Scan(&entry.Id, &entry.Owner, &entry.Kind,
		&amountStr, &balanceAfterStr, &totalAfterStr,
		&entry.OpIndex, &entry.Reference, &entry.CreatedAt, &entry.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	if entry.Amount, err = amountFromString(amountStr); err != nil {
		return nil, err
	}
	if entry.BalanceAfter, err = amountFromString(balanceAfterStr); err != nil {
		return nil, err
	}
	if entry.TotalAfter, err = amountFromString(totalAfterStr); err != nil {
		return nil, err
	}
	return &entry, nil
}

// LoadState folds the journal into per-owner balances and operation
// counters, for rebuilding the in-memory ledger at startup.
func (s *Service) LoadState(ctx context.Context) (*store.State, error) {
	state := &store.State{Balances: make(map[string]uint64)}

	rows, err := s.db.QueryContext(ctx, queryGetAllBalances)
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var owner, balanceStr string
		if err := rows.Scan(&owner, &balanceStr); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		balance, err := amountFromString(balanceStr)
		if err != nil {
			return nil, err
		}
		if balance == 0 {
			continue
		}
		state.Balances[owner] = balance
		state.TotalDeposited += balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, queryGetMaxOpIndex, store.KindDeposit).Scan(&state.DepositCount); err != nil {
		return nil, fmt.Errorf("failed to load deposit count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, queryGetMaxOpIndex, store.KindWithdrawal).Scan(&state.WithdrawalCount); err != nil {
		return nil, fmt.Errorf("failed to load withdrawal count: %w", err)
	}

	zap.L().Info("Journal state loaded",
		zap.Int("owners", len(state.Balances)),
		zap.Uint64("total_deposited", state.TotalDeposited),
		zap.Uint64("deposit_count", state.DepositCount),
		zap.Uint64("withdrawal_count", state.WithdrawalCount))

	return state, nil
}

// ReconcileOwner verifies the owner's mirrored balance against the sum of
// journaled movements.
func (s *Service) ReconcileOwner(ctx context.Context, owner string) error {
	var mirroredStr string
	var version int64
	err := s.db.QueryRowContext(ctx, queryGetVaultBalance, owner).Scan(&mirroredStr, &version)
	if err == sql.ErrNoRows {
		mirroredStr = "0"
	} else if err != nil {
		return fmt.Errorf("failed to get mirrored balance: %w", err)
	}
	mirrored, err := amountFromString(mirroredStr)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, queryGetOwnerMovements, owner)
	if err != nil {
		return fmt.Errorf("failed to load movements: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var deposited, withdrawn uint64
	for rows.Next() {
		var kind, amountStr string
		if err := rows.Scan(&kind, &amountStr); err != nil {
			return fmt.Errorf("failed to scan movement row: %w", err)
		}
		amount, err := amountFromString(amountStr)
		if err != nil {
			return err
		}
		switch kind {
		case store.KindDeposit:
			deposited += amount
		case store.KindWithdrawal:
			withdrawn += amount
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating movement rows: %w", err)
	}

	if withdrawn > deposited {
		return fmt.Errorf("%w: owner %s withdrew %d against %d deposited",
			store.ErrReconcileMismatch, owner, withdrawn, deposited)
	}
	calculated := deposited - withdrawn
	if calculated != mirrored {
		zap.L().Error("Balance reconciliation mismatch",
			zap.String("owner", owner),
			zap.Uint64("mirrored", mirrored),
			zap.Uint64("calculated", calculated))
		return fmt.Errorf("%w: owner %s mirrored %d, journaled %d",
			store.ErrReconcileMismatch, owner, mirrored, calculated)
	}

	zap.L().Info("Balance reconciled",
		zap.String("owner", owner),
		zap.Uint64("balance", mirrored))
	return nil
}
