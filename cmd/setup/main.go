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

package main

import (
	"context"
	"flag"
	"fmt"

	"vault-ledger-go/internal/common"
	"vault-ledger-go/internal/config"

	"go.uber.org/zap"
)

// cmd/setup initializes the journal backend and funds vaults from a seed
// file. Safe to re-run: seeds carry deterministic references, so entries
// already journaled are skipped as duplicates.
func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	seedFileFlag := flag.String("seeds", "", "Seed file path (overrides SEED_FILE)")
	flag.Parse()

	logger.Info("Starting vault setup")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *seedFileFlag != "" {
		cfg.Ledger.SeedFile = *seedFileFlag
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	seeds, err := common.LoadSeeds(cfg.Ledger.SeedFile)
	if err != nil {
		logger.Fatal("Failed to load seeds", zap.Error(err))
	}

	common.PrintHeader("VAULT SETUP", common.DefaultWidth)
	fmt.Printf("Backend:        %s\n", cfg.Journal)
	fmt.Printf("Withdraw limit: %d\n", cfg.Ledger.WithdrawLimit)
	fmt.Printf("Bank cap:       %d\n", cfg.Ledger.BankCap)
	fmt.Printf("Seeds:          %d\n", len(seeds))

	seeded := 0
	skipped := 0
	for i, seed := range seeds {
		reference := common.SeedReference(i, seed)
		result, err := services.Api.Deposit(ctx, seed.Owner, seed.Amount, reference)
		if err != nil {
			logger.Fatal("Seed deposit failed", zap.String("owner", seed.Owner), zap.Error(err))
		}

		isLast := i == len(seeds)-1
		switch {
		case result.Success && result.Duplicate:
			skipped++
			fmt.Printf("%s %-20s +%d already seeded\n",
				common.BoxPrefix(isLast), seed.Owner, seed.Amount)
		case result.Success:
			seeded++
			fmt.Printf("%s %-20s +%d (balance %d)\n",
				common.BoxPrefix(isLast), seed.Owner, seed.Amount, result.NewBalance)
		default:
			skipped++
			fmt.Printf("%s %-20s +%d rejected: %s\n",
				common.BoxPrefix(isLast), seed.Owner, seed.Amount, result.Error)
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d seeded, %d skipped, total deposited %d",
		seeded, skipped, services.Api.TotalDeposited())
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Vault setup completed",
		zap.Int("seeded", seeded),
		zap.Int("skipped", skipped),
		zap.Uint64("total_deposited", services.Api.TotalDeposited()))
}
