package provider

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInsufficientFunds is returned when a withdrawal exceeds the wallet
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNegativeAmount is returned for negative transfers
var ErrNegativeAmount = errors.New("amount must not be negative")

// MemoryLedger keeps player wallets in memory and formats amounts for a locale
type MemoryLedger struct {
	mu      sync.Mutex
	wallets map[string]int64
	printer *message.Printer
	symbol  string
}

// LedgerConfig holds configuration for the memory ledger
type LedgerConfig struct {
	Locale string // BCP 47 tag, default "en"
	Symbol string // currency symbol, default "$"
}

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger(cfg LedgerConfig) *MemoryLedger {
	tag := language.English
	if cfg.Locale != "" {
		if parsed, err := language.Parse(cfg.Locale); err == nil {
			tag = parsed
		}
	}
	symbol := cfg.Symbol
	if symbol == "" {
		symbol = "$"
	}
	return &MemoryLedger{
		wallets: make(map[string]int64),
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}
}

// Balance returns a player's wallet
func (l *MemoryLedger) Balance(ctx context.Context, playerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallets[playerID], nil
}

// Withdraw takes amount from a player's wallet
func (l *MemoryLedger) Withdraw(ctx context.Context, playerID string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wallets[playerID] < amount {
		return ErrInsufficientFunds
	}
	l.wallets[playerID] -= amount
	return nil
}

// Deposit adds amount to a player's wallet
func (l *MemoryLedger) Deposit(ctx context.Context, playerID string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.wallets[playerID] += amount
	return nil
}

// Format renders an amount with grouping for the configured locale
func (l *MemoryLedger) Format(amount int64) string {
	return l.symbol + l.printer.Sprintf("%d", amount)
}
