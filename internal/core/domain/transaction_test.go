package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionKind(t *testing.T) {
	tests := []struct {
		in     string
		want   domain.TransactionKind
		wantOK bool
	}{
		{"INCOME", domain.Income, true},
		{"expense", domain.Expense, true},
		{" Income ", domain.Income, true},
		{"transfer", "TRANSFER", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := domain.ParseTransactionKind(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		errMsg string
	}{
		{"zero", "0", ""},
		{"two places", "12.34", ""},
		{"trailing zeros", "12.3400", ""},
		{"max", "99999999.99", ""},
		{"negative", "-0.01", "must not be negative"},
		{"three places", "1.005", "at most 2 decimal places"},
		{"too large", "100000000.00", "must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := domain.ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.errMsg == "" {
				assert.Empty(t, msg)
			} else {
				assert.Contains(t, msg, tt.errMsg)
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	now := time.Now()
	valid := domain.Transaction{
		TransactionID: "txn_123",
		OwnerID:       "user_123",
		Name:          "Salary",
		Kind:          domain.Income,
		Amount:        decimal.NewFromInt(100),
		OccurredOn:    domain.DateOnly(now),
		CategoryID:    "cat_123",
	}

	t.Run("valid transaction", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("collects every failing field", func(t *testing.T) {
		tx := valid
		tx.Name = "  "
		tx.Kind = "GIFT"
		tx.Amount = decimal.NewFromInt(-5)
		tx.CategoryID = ""

		err := tx.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		var verr *apperrors.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 4)
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "kind")
		assert.Contains(t, verr.Fields, "amount")
		assert.Contains(t, verr.Fields, "categoryID")
	})

	t.Run("missing date", func(t *testing.T) {
		tx := valid
		tx.OccurredOn = time.Time{}
		var verr *apperrors.ValidationError
		require.True(t, errors.As(tx.Validate(), &verr))
		assert.Equal(t, "date is required", verr.Fields["occurredOn"])
	})
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 3, 10, 17, 45, 12, 99, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), domain.DateOnly(in))
}
