package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"vault-ledger-go/internal/api"
	"vault-ledger-go/internal/database"
	"vault-ledger-go/internal/formance"
	"vault-ledger-go/internal/models"
	"vault-ledger-go/internal/store"
	"vault-ledger-go/internal/transfer"
	"vault-ledger-go/internal/vault"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Journal store.Journal
	Ledger  *vault.Ledger
	Api     *api.LedgerService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the journal backend, the transfer backend, and
// the in-memory ledger rebuilt from journaled state.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	journal, err := newJournal(ctx, cfg)
	if err != nil {
		return nil, err
	}

	transferer, err := newTransferer(ctx, cfg)
	if err != nil {
		journal.Close()
		return nil, err
	}

	zap.L().Info("Rebuilding ledger from journal")
	state, err := journal.LoadState(ctx)
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("unable to load journaled state: %w", err)
	}

	ledger, err := vault.Restore(cfg.Ledger.WithdrawLimit, cfg.Ledger.BankCap, transferer, vault.Snapshot{
		Balances:        state.Balances,
		TotalDeposited:  state.TotalDeposited,
		DepositCount:    state.DepositCount,
		WithdrawalCount: state.WithdrawalCount,
	})
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("unable to restore ledger: %w", err)
	}

	zap.L().Info("Ledger restored",
		zap.Uint64("withdraw_limit", cfg.Ledger.WithdrawLimit),
		zap.Uint64("bank_cap", cfg.Ledger.BankCap),
		zap.Uint64("total_deposited", ledger.TotalDeposited()),
		zap.Uint64("deposit_count", ledger.DepositCount()),
		zap.Uint64("withdrawal_count", ledger.WithdrawalCount()))

	return &Services{
		Journal: journal,
		Ledger:  ledger,
		Api:     api.NewLedgerService(ledger, journal),
	}, nil
}

func newJournal(ctx context.Context, cfg *models.Config) (store.Journal, error) {
	switch cfg.Journal {
	case "sqlite":
		return database.NewService(ctx, cfg.Database)
	case "formance":
		return formance.NewService(ctx, cfg.Formance)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q (expected sqlite or formance)", cfg.Journal)
	}
}

func newTransferer(ctx context.Context, cfg *models.Config) (vault.Transferer, error) {
	switch cfg.Transfer.Backend {
	case "log":
		return transfer.NewLog(), nil
	case "prime":
		zap.L().Info("Loading Prime API credentials")
		creds, err := loadPrimeCredentials()
		if err != nil {
			return nil, err
		}
		return transfer.NewPrime(ctx, creds, cfg.Transfer)
	default:
		return nil, fmt.Errorf("unknown transfer backend %q (expected log or prime)", cfg.Transfer.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Journal != nil {
		cs.Journal.Close()
	}
}

func loadPrimeCredentials() (*credentials.Credentials, error) {
	accessKey := os.Getenv("PRIME_ACCESS_KEY")
	passphrase := os.Getenv("PRIME_PASSPHRASE")
	signingKey := os.Getenv("PRIME_SIGNING_KEY")

	if accessKey == "" || passphrase == "" || signingKey == "" {
		return nil, fmt.Errorf("missing required Prime API credentials: PRIME_ACCESS_KEY, PRIME_PASSPHRASE, PRIME_SIGNING_KEY")
	}

	return &credentials.Credentials{
		AccessKey:  accessKey,
		Passphrase: passphrase,
		SigningKey: signingKey,
	}, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
