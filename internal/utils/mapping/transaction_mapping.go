package mapping

import (
	"database/sql"

	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/SscSPs/expense_ledger/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: d.TransactionID,
		OwnerID:       d.OwnerID,
		Name:          d.Name,
		Kind:          models.TransactionKind(d.Kind),
		Amount:        d.Amount,
		OccurredOn:    d.OccurredOn,
		CategoryID:    d.CategoryID,
		Note:          sql.NullString{String: d.Note, Valid: d.Note != ""},
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		OwnerID:       m.OwnerID,
		Name:          m.Name,
		Kind:          domain.TransactionKind(m.Kind),
		Amount:        m.Amount,
		OccurredOn:    domain.DateOnly(m.OccurredOn),
		CategoryID:    m.CategoryID,
		Note:          m.Note.String,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
