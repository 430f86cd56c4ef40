package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind mirrors the CHECK constraint on transactions.kind.
type TransactionKind string

const (
	Income  TransactionKind = "INCOME"
	Expense TransactionKind = "EXPENSE"
)

// Transaction is a row of the transactions table.
type Transaction struct {
	TransactionID string          `db:"transaction_id"`
	OwnerID       string          `db:"owner_id"`
	Name          string          `db:"name"`
	Kind          TransactionKind `db:"kind"`
	Amount        decimal.Decimal `db:"amount"` // NUMERIC(10,2)
	OccurredOn    time.Time       `db:"occurred_on"`
	CategoryID    string          `db:"category_id"`
	Note          sql.NullString  `db:"note"`
	AuditFields
}
