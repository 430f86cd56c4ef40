package mapping

import (
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/SscSPs/expense_ledger/internal/models"
)

// ToDomainBalance converts a model Balance to a domain Balance
func ToDomainBalance(m models.Balance) domain.Balance {
	return domain.Balance{
		OwnerID:       m.OwnerID,
		Amount:        m.Amount,
		CreatedAt:     m.CreatedAt,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}
