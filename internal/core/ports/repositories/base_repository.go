package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerTx is a unit of work over the ledger. Everything written through it
// commits together or not at all.
type LedgerTx interface {
	// LockBalance takes the owner's exclusive balance lock and returns the current balance.
	// The lock is held until the unit of work ends. Returns apperrors.ErrBusy when the
	// lock cannot be acquired in time and apperrors.ErrIntegrity when the owner does not
	// have exactly one balance.
	LockBalance(ctx context.Context, ownerID string) (*domain.Balance, error)

	// FindTransactionForUpdate re-reads a transaction inside the unit of work.
	FindTransactionForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// InsertTransaction stages a new transaction.
	InsertTransaction(ctx context.Context, txn domain.Transaction) error

	// UpdateTransaction stages the mutable fields of an existing transaction.
	UpdateTransaction(ctx context.Context, txn domain.Transaction) error

	// DeleteTransaction stages removal of a transaction.
	DeleteTransaction(ctx context.Context, transactionID string) error

	// SetBalance stages the new balance amount for a locked owner.
	SetBalance(ctx context.Context, ownerID string, amount decimal.Decimal, now time.Time) error
}

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// RunInTx executes fn inside a unit of work. A nil return commits; any error
	// (including a panic) rolls back and is returned unchanged.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// RepositoryWithTx is a marker interface for repositories that support transactions
type RepositoryWithTx interface {
	TransactionManager
}
