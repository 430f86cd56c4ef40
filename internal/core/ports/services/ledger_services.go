package services

import (
	"context"

	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/SscSPs/expense_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// TransactionReaderSvc defines read operations for transaction data
type TransactionReaderSvc interface {
	// GetTransaction retrieves one of the requestor's transactions.
	GetTransaction(ctx context.Context, transactionID string, requestorID string) (*domain.Transaction, error)

	// ListTransactions retrieves a page of the owner's transactions, newest first.
	ListTransactions(ctx context.Context, ownerID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// TransactionWriterSvc defines the balance-affecting mutations. Each call is one
// atomic unit of work: the transaction row and the owner's balance change together.
type TransactionWriterSvc interface {
	// CreateTransaction records a new transaction and applies its effect to the balance.
	CreateTransaction(ctx context.Context, ownerID string, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// UpdateTransaction replaces a transaction's mutable fields, reversing its old effect.
	UpdateTransaction(ctx context.Context, transactionID string, requestorID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error)

	// DeleteTransaction removes a transaction and reverses its effect.
	DeleteTransaction(ctx context.Context, transactionID string, requestorID string) error
}

// TransactionSvcFacade combines all transaction-related service interfaces
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWriterSvc
}

// BalanceSvc defines balance operations
type BalanceSvc interface {
	// EnsureBalance returns the owner's balance, creating a zero balance if absent.
	EnsureBalance(ctx context.Context, ownerID string) (*domain.Balance, error)

	// GetBalance returns the owner's current balance.
	GetBalance(ctx context.Context, ownerID string) (*domain.Balance, error)

	// ReconcileBalance recomputes the balance from transactions and compares it with the
	// stored one. A mismatch is reported as apperrors.ErrBalanceDrift alongside the values;
	// any other apperrors.ErrIntegrity means the values are meaningless.
	ReconcileBalance(ctx context.Context, ownerID string) (stored decimal.Decimal, recomputed decimal.Decimal, err error)
}
