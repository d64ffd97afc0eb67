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

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ownerFlag := flag.String("owner", "", "Filter by owner (optional, all owners when empty)")
	limitFlag := flag.Int("limit", 20, "Maximum entries to show")
	offsetFlag := flag.Int("offset", 0, "Entries to skip")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	entries, err := services.Api.History(ctx, *ownerFlag, *limitFlag, *offsetFlag)
	if err != nil {
		logger.Fatal("Failed to load history", zap.Error(err))
	}

	title := "VAULT HISTORY"
	if *ownerFlag != "" {
		title = fmt.Sprintf("VAULT HISTORY: %s", *ownerFlag)
	}
	common.PrintHeader(title, common.DefaultWidth)

	for i, entry := range entries {
		sign := "+"
		if entry.Kind == "withdrawal" {
			sign = "-"
		}
		fmt.Printf("%s %s  %-12s %-15s %s%-12d balance %-12d ref %s\n",
			common.BoxPrefix(i == len(entries)-1),
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Kind,
			entry.Owner,
			sign,
			entry.Amount,
			entry.BalanceAfter,
			entry.Reference)
	}

	summary := fmt.Sprintf("SUMMARY: %d entries (limit %d, offset %d)", len(entries), *limitFlag, *offsetFlag)
	common.PrintFooter(summary, common.DefaultWidth)
}
