package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a row of the balances table. There is exactly one per owner.
type Balance struct {
	OwnerID       string          `db:"owner_id"`
	Amount        decimal.Decimal `db:"amount"`
	CreatedAt     time.Time       `db:"created_at"`
	LastUpdatedAt time.Time       `db:"last_updated_at"`
}
