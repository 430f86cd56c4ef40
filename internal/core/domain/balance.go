package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the derived running total of an owner's transactions.
// There is exactly one Balance per owner once it has been bootstrapped.
type Balance struct {
	OwnerID       string          `json:"ownerID"` // Unique
	Amount        decimal.Decimal `json:"amount"`  // Signed; income adds, expense subtracts
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// Projected returns the balance amount after applying delta.
func (b Balance) Projected(delta decimal.Decimal) decimal.Decimal {
	return b.Amount.Add(delta)
}
