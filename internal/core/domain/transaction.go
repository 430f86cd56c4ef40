package domain

import (
	"strings"
	"time"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// TransactionKind indicates whether a transaction adds to or subtracts from the balance.
type TransactionKind string

const (
	Income  TransactionKind = "INCOME"
	Expense TransactionKind = "EXPENSE"
)

// IsValid reports whether k is a known kind.
func (k TransactionKind) IsValid() bool {
	return k == Income || k == Expense
}

// ParseTransactionKind accepts the upper or lower case spelling ("income", "EXPENSE").
func ParseTransactionKind(s string) (TransactionKind, bool) {
	k := TransactionKind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.IsValid()
}

const (
	// AmountScale is the number of decimal places kept for amounts.
	AmountScale = 2
	// MaxNameLength bounds Transaction.Name.
	MaxNameLength = 255
)

// MaxAmount is the largest amount a single transaction may carry (NUMERIC(10,2)).
var MaxAmount = decimal.RequireFromString("99999999.99")

// MaxBalance is the largest absolute balance the ledger stores (NUMERIC(20,2)).
var MaxBalance = decimal.RequireFromString("999999999999999999.99")

// RoundAmount fixes amount at AmountScale decimal places so every store holds
// the same representation ("1.500" becomes "1.50").
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountScale)
}

// Transaction is a single income or expense entry owned by one user.
type Transaction struct {
	TransactionID string          `json:"transactionID"` // Primary Key (UUID), immutable
	OwnerID       string          `json:"ownerID"`       // immutable
	Name          string          `json:"name"`
	Kind          TransactionKind `json:"kind"`
	Amount        decimal.Decimal `json:"amount"` // Non-negative, 2 decimal places
	OccurredOn    time.Time       `json:"occurredOn"`
	CategoryID    string          `json:"categoryID"`
	Note          string          `json:"note"` // Nullable
	AuditFields
}

// DateOnly truncates t to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateAmount checks the non-negative, fixed precision rules for amounts.
func ValidateAmount(amount decimal.Decimal) string {
	switch {
	case amount.IsNegative():
		return "amount must not be negative"
	case amount.Exponent() < -AmountScale && !amount.Equal(amount.Truncate(AmountScale)):
		return "amount must have at most 2 decimal places"
	case amount.GreaterThan(MaxAmount):
		return "amount must not exceed " + MaxAmount.StringFixed(AmountScale)
	}
	return ""
}

// Validate checks the field level invariants of a transaction.
// It returns nil or a *apperrors.ValidationError.
func (t Transaction) Validate() error {
	verr := &apperrors.ValidationError{}
	if t.OwnerID == "" {
		verr.Add("ownerID", "owner is required")
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		verr.Add("name", "name is required")
	} else if len(name) > MaxNameLength {
		verr.Add("name", "name must be at most 255 characters")
	}
	if !t.Kind.IsValid() {
		verr.Add("kind", "kind must be INCOME or EXPENSE")
	}
	if msg := ValidateAmount(t.Amount); msg != "" {
		verr.Add("amount", msg)
	}
	if t.CategoryID == "" {
		verr.Add("categoryID", "category is required")
	}
	if t.OccurredOn.IsZero() {
		verr.Add("occurredOn", "date is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
