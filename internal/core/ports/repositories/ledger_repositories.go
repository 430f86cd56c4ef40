package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionReader defines read operations for transaction data
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction regardless of owner.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByOwner returns the owner's transactions, newest first, using token pagination.
	ListTransactionsByOwner(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// SumTransactionEffects recomputes the owner's balance from the transactions table.
	SumTransactionEffects(ctx context.Context, ownerID string) (decimal.Decimal, error)
}

// BalanceRepository defines balance bootstrap and read operations
type BalanceRepository interface {
	// CreateBalanceIfAbsent inserts a zero balance for the owner unless one exists.
	// It reports whether this call created the row. Safe under concurrent callers.
	CreateBalanceIfAbsent(ctx context.Context, ownerID string, now time.Time) (bool, error)

	// FindBalanceByOwner retrieves the owner's balance without locking it.
	FindBalanceByOwner(ctx context.Context, ownerID string) (*domain.Balance, error)
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	TransactionReader
	BalanceRepository
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
