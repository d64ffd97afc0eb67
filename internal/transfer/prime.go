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

package transfer

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"vault-ledger-go/internal/models"
	"vault-ledger-go/internal/vault"

	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Compile-time check: *Prime must satisfy vault.Transferer.
var _ vault.Transferer = (*Prime)(nil)

// Prime releases withdrawn value through the Coinbase Prime API as a
// blockchain withdrawal from the configured wallet. The destination owner
// identifier is treated as the blockchain address to pay out to.
type Prime struct {
	transactionsSvc transactions.TransactionsService
	portfolioId     string
	walletId        string
	symbol          string
}

func NewPrime(ctx context.Context, creds *credentials.Credentials, cfg models.TransferConfig) (*Prime, error) {
	if cfg.WalletId == "" {
		return nil, fmt.Errorf("prime transfer backend requires a wallet id")
	}
	if cfg.Asset == "" {
		return nil, fmt.Errorf("prime transfer backend requires an asset symbol")
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	restClient := client.NewRestClient(creds, httpClient)

	portfolioId := cfg.PortfolioId
	if portfolioId == "" {
		portfolioId, err = findDefaultPortfolio(ctx, portfolios.NewPortfoliosService(restClient))
		if err != nil {
			return nil, err
		}
		zap.L().Info("Resolved default portfolio", zap.String("portfolio_id", portfolioId))
	}

	return &Prime{
		transactionsSvc: transactions.NewTransactionsService(restClient),
		portfolioId:     portfolioId,
		walletId:        cfg.WalletId,
		symbol:          cfg.Asset,
	}, nil
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func findDefaultPortfolio(ctx context.Context, svc portfolios.PortfoliosService) (string, error) {
	response, err := svc.ListPortfolios(ctx, &portfolios.ListPortfoliosRequest{})
	if err != nil {
		return "", fmt.Errorf("unable to list portfolios: %w", err)
	}
	for _, p := range response.Portfolios {
		if p.Name == "Default Portfolio" {
			return p.Id, nil
		}
	}
	return "", fmt.Errorf("default portfolio not found")
}

// Transfer creates a blockchain withdrawal via the Prime API. A non-nil
// error means no value left custody and the caller rolls the withdrawal back.
func (p *Prime) Transfer(ctx context.Context, to string, amount uint64) error {
	amountStr := strconv.FormatUint(amount, 10)
	idempotencyKey := uuid.New().String()

	zap.L().Info("Creating withdrawal via Prime API",
		zap.String("portfolio_id", p.portfolioId),
		zap.String("wallet_id", p.walletId),
		zap.String("symbol", p.symbol),
		zap.String("amount", amountStr),
		zap.String("destination", to))

	request := &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:     p.portfolioId,
		SourceWalletId:  p.walletId,
		Amount:          amountStr,
		IdempotencyKey:  idempotencyKey,
		Symbol:          p.symbol,
		DestinationType: "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: &model.BlockchainAddress{
			Address: to,
		},
	}

	response, err := p.transactionsSvc.CreateWalletWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to create withdrawal",
			zap.String("wallet_id", p.walletId),
			zap.String("amount", amountStr),
			zap.Error(err))
		return fmt.Errorf("unable to create withdrawal: %w", err)
	}

	zap.L().Info("Withdrawal created successfully",
		zap.String("activity_id", response.ActivityId),
		zap.String("amount", amountStr),
		zap.String("destination", to))
	return nil
}
