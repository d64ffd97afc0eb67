package models

import "time"

// Config represents the application configuration
type Config struct {
	Ledger   LedgerConfig
	Journal  string // "sqlite" or "formance"
	Database DatabaseConfig
	Formance FormanceConfig
	Transfer TransferConfig
}

// LedgerConfig holds the immutable vault ledger limits
type LedgerConfig struct {
	WithdrawLimit uint64
	BankCap       uint64
	SeedFile      string
}

// DatabaseConfig holds SQLite journal connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// FormanceConfig holds Formance Stack journal settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	Asset        string
}

// TransferConfig holds value-transfer collaborator settings
type TransferConfig struct {
	Backend     string // "log" or "prime"
	Asset       string
	PortfolioId string
	WalletId    string
}
