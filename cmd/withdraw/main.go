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

	ownerFlag := flag.String("owner", "", "Vault owner to debit (required)")
	amountFlag := flag.Uint64("amount", 0, "Amount in base units (required)")
	referenceFlag := flag.String("reference", "", "Idempotency reference (optional)")
	flag.Parse()

	if *ownerFlag == "" || *amountFlag == 0 {
		logger.Fatal("Usage: withdraw -owner <owner> -amount <amount> [-reference <ref>]")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := services.Api.Withdraw(ctx, *ownerFlag, *amountFlag, *referenceFlag)
	if err != nil {
		logger.Fatal("Withdrawal failed", zap.Error(err))
	}

	common.PrintHeader("WITHDRAWAL", common.DefaultWidth)
	if result.Success {
		fmt.Printf("Owner:            %s\n", result.Owner)
		fmt.Printf("Amount:           %d\n", result.Amount)
		fmt.Printf("New balance:      %d\n", result.NewBalance)
		fmt.Printf("Total deposited:  %d\n", result.TotalDeposited)
		fmt.Printf("Withdrawal index: %d\n", result.WithdrawalIndex)
		common.PrintFooter("Withdrawal committed", common.DefaultWidth)
	} else {
		fmt.Printf("Owner:  %s\n", *ownerFlag)
		fmt.Printf("Amount: %d\n", *amountFlag)
		fmt.Printf("Error:  %s\n", result.Error)
		common.PrintFooter("Withdrawal rejected", common.DefaultWidth)
	}
}
