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

package api

import (
	"context"
	"fmt"

	"vault-ledger-go/internal/store"
	"vault-ledger-go/internal/vault"
)

// LedgerService fronts the in-memory vault ledger and its durable journal.
// The ledger is the source of truth for balances; the journal records every
// committed operation for audit and restart.
type LedgerService struct {
	ledger  *vault.Ledger
	journal store.Journal
}

func NewLedgerService(ledger *vault.Ledger, journal store.Journal) *LedgerService {
	return &LedgerService{
		ledger:  ledger,
		journal: journal,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if _, err := s.journal.LoadState(ctx); err != nil {
		return fmt.Errorf("journal health check failed: %w", err)
	}
	return nil
}
