/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const schemaVaultJournal = `
	-- Vault Balances Table (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS vault_balances (
		owner TEXT PRIMARY KEY,
		balance TEXT NOT NULL DEFAULT '0',
		last_entry_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Vault Entries Table (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS vault_entries (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		total_after TEXT NOT NULL,
		op_index INTEGER NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Performance Indexes
	CREATE INDEX IF NOT EXISTS idx_vault_entries_owner ON vault_entries(owner);
	CREATE INDEX IF NOT EXISTS idx_vault_entries_kind ON vault_entries(kind);
	CREATE INDEX IF NOT EXISTS idx_vault_entries_created_at ON vault_entries(created_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_vault_entries_reference ON vault_entries(reference);
	`

const (
	queryCheckDuplicateReference = `
		SELECT id FROM vault_entries WHERE reference = ? LIMIT 1`

	queryGetVaultBalance = `
		SELECT balance, version
		FROM vault_balances
		WHERE owner = ?`

	queryInsertVaultBalance = `
		INSERT INTO vault_balances (owner, balance, version)
		VALUES (?, ?, 1)`

	queryUpdateVaultBalance = `
		UPDATE vault_balances
		SET balance = ?, last_entry_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE owner = ? AND version = ?`

	queryInsertVaultEntry = `
		INSERT INTO vault_entries (
			id, owner, kind, amount, balance_after, total_after, op_index, reference, created_at, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetHistory = `
		SELECT id, owner, kind, amount, balance_after, total_after, op_index, reference, created_at, recorded_at
		FROM vault_entries
		WHERE owner = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryGetHistoryAll = `
		SELECT id, owner, kind, amount, balance_after, total_after, op_index, reference, created_at, recorded_at
		FROM vault_entries
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryGetAllBalances = `
		SELECT owner, balance
		FROM vault_balances
		WHERE balance != '0'
		ORDER BY owner`

	queryGetMaxOpIndex = `
		SELECT COALESCE(MAX(op_index), 0)
		FROM vault_entries
		WHERE kind = ?`

	// Amounts are summed in Go; TEXT-stored values stay exact for the full
	// uint64 range.
	queryGetOwnerMovements = `
		SELECT kind, amount
		FROM vault_entries
		WHERE owner = ?`
)
