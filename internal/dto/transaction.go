package dto

import (
	"time"

	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// CreateTransactionRequest defines the data needed to record an income or expense.
type CreateTransactionRequest struct {
	Name       string           `json:"name" binding:"required,max=255"`
	Kind       string           `json:"kind" binding:"required,oneof=INCOME EXPENSE income expense"`
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
	Date       string           `json:"date" binding:"omitempty,datetime=2006-01-02"` // Optional, defaults to today
	CategoryID string           `json:"categoryID" binding:"required"`
	Note       string           `json:"note"` // Optional
}

// UpdateTransactionRequest replaces every mutable field of a transaction.
type UpdateTransactionRequest CreateTransactionRequest

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID string    `json:"transactionID"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	Amount        string    `json:"amount"` // Fixed 2 decimal places
	Date          string    `json:"date"`
	CategoryID    string    `json:"categoryID"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Name:          txn.Name,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount.StringFixed(domain.AmountScale),
		Date:          txn.OccurredOn.Format(DateLayout),
		CategoryID:    txn.CategoryID,
		Note:          txn.Note,
		CreatedAt:     txn.CreatedAt,
		LastUpdatedAt: txn.LastUpdatedAt,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
