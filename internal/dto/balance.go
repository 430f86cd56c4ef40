package dto

import (
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceResponse is the owner's current balance, formatted with two decimals.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// ReconcileResponse compares the stored balance with one recomputed from transactions.
type ReconcileResponse struct {
	Stored     string `json:"stored"`
	Recomputed string `json:"recomputed"`
	Consistent bool   `json:"consistent"`
}

// ToBalanceResponse converts a domain.Balance to BalanceResponse DTO.
// A nil balance renders as "0.00".
func ToBalanceResponse(b *domain.Balance) BalanceResponse {
	amount := decimal.Zero
	if b != nil {
		amount = b.Amount
	}
	return BalanceResponse{Balance: amount.StringFixed(domain.AmountScale)}
}

// ToReconcileResponse builds a ReconcileResponse.
func ToReconcileResponse(stored, recomputed decimal.Decimal) ReconcileResponse {
	return ReconcileResponse{
		Stored:     stored.StringFixed(domain.AmountScale),
		Recomputed: recomputed.StringFixed(domain.AmountScale),
		Consistent: stored.Equal(recomputed),
	}
}
