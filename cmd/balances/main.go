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

	ownerFlag := flag.String("owner", "", "Show a single owner's balance (optional)")
	reconcileFlag := flag.Bool("reconcile", false, "Verify journal consistency per owner")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	common.PrintHeader("VAULT BALANCE REPORT", common.DefaultWidth)

	if *ownerFlag != "" {
		fmt.Printf("%-20s %20d\n", *ownerFlag, services.Api.BalanceOf(*ownerFlag))
		if *reconcileFlag {
			printReconciliation(ctx, services, *ownerFlag)
		}
	} else {
		balances := services.Api.AllBalances()
		for i, balance := range balances {
			fmt.Printf("%s %-20s %20d\n", common.BoxPrefix(i == len(balances)-1), balance.Owner, balance.Balance)
			if *reconcileFlag {
				printReconciliation(ctx, services, balance.Owner)
			}
		}
	}

	summary := fmt.Sprintf("SUMMARY: total %d / cap %d, %d deposits, %d withdrawals, withdraw limit %d",
		services.Api.TotalDeposited(), services.Api.BankCap(),
		services.Api.DepositCount(), services.Api.WithdrawalCount(),
		services.Api.WithdrawLimit())
	common.PrintFooter(summary, common.DefaultWidth)
}

func printReconciliation(ctx context.Context, services *common.Services, owner string) {
	if err := services.Api.ReconcileOwner(ctx, owner); err != nil {
		fmt.Printf("   reconcile: MISMATCH (%v)\n", err)
	} else {
		fmt.Printf("   reconcile: ok\n")
	}
}
