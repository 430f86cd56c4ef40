package accounting

import (
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EffectOf returns the signed contribution of a transaction to its owner's balance.
// INCOME -> +amount, EXPENSE -> -amount. Unknown kinds contribute nothing.
func EffectOf(kind domain.TransactionKind, amount decimal.Decimal) decimal.Decimal {
	switch kind {
	case domain.Income:
		return amount
	case domain.Expense:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// DeltaForCreate is the balance change caused by recording a new transaction.
func DeltaForCreate(kind domain.TransactionKind, amount decimal.Decimal) decimal.Decimal {
	return EffectOf(kind, amount)
}

// DeltaForUpdate reverses the old effect and applies the new one as a single delta,
// so the balance never passes through the intermediate reverted state.
func DeltaForUpdate(oldKind domain.TransactionKind, oldAmount decimal.Decimal, newKind domain.TransactionKind, newAmount decimal.Decimal) decimal.Decimal {
	return EffectOf(newKind, newAmount).Sub(EffectOf(oldKind, oldAmount))
}

// DeltaForDelete undoes the effect of a transaction as if it never existed.
func DeltaForDelete(kind domain.TransactionKind, amount decimal.Decimal) decimal.Decimal {
	return EffectOf(kind, amount).Neg()
}

// AvailableAfterReversal is the balance with the old effect of a transaction undone.
// Updates are checked against this value, not against the stored balance.
func AvailableAfterReversal(balance decimal.Decimal, oldKind domain.TransactionKind, oldAmount decimal.Decimal) decimal.Decimal {
	return balance.Sub(EffectOf(oldKind, oldAmount))
}

// WouldOverdraw reports whether an expense of amount cannot be covered by available.
// An expense equal to the available balance is allowed.
func WouldOverdraw(kind domain.TransactionKind, amount decimal.Decimal, available decimal.Decimal) bool {
	return kind == domain.Expense && amount.GreaterThan(available)
}

// ExceedsBalanceLimit reports whether a balance falls outside what the ledger can store.
func ExceedsBalanceLimit(balance decimal.Decimal) bool {
	return balance.Abs().GreaterThan(domain.MaxBalance)
}

// SumEffects recomputes a balance from scratch. Only used for verification and repair.
func SumEffects(transactions []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range transactions {
		total = total.Add(EffectOf(txn.Kind, txn.Amount))
	}
	return total
}
