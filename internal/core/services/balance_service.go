package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type balanceService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryWithTx
}

// NewBalanceService creates the balance bootstrap and read service.
func NewBalanceService(ledgerRepo portsrepo.LedgerRepositoryWithTx, options ...ServiceOption) portssvc.BalanceSvc {
	svc := &balanceService{
		BaseService: newBaseService(),
		ledgerRepo:  ledgerRepo,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

// EnsureBalance is an owner-scoped upsert-if-absent. Concurrent first calls for
// the same owner converge on a single balance row.
func (s *balanceService) EnsureBalance(ctx context.Context, ownerID string) (*domain.Balance, error) {
	if ownerID == "" {
		return nil, apperrors.NewValidationError("ownerID", "owner is required")
	}

	created, err := s.ledgerRepo.CreateBalanceIfAbsent(ctx, ownerID, s.now())
	if err != nil {
		s.LogError(ctx, err, "Failed to bootstrap balance", slog.String("owner_id", ownerID))
		return nil, err
	}
	if created {
		s.LogInfo(ctx, "Balance bootstrapped", slog.String("owner_id", ownerID))
	}

	balance, err := s.ledgerRepo.FindBalanceByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			err = fmt.Errorf("%w: balance of owner %s missing after bootstrap", apperrors.ErrIntegrity, ownerID)
		}
		s.LogError(ctx, err, "Failed to read balance after bootstrap", slog.String("owner_id", ownerID))
		return nil, err
	}
	return balance, nil
}

// GetBalance returns the owner's balance. Owners without one get a zero balance created.
func (s *balanceService) GetBalance(ctx context.Context, ownerID string) (*domain.Balance, error) {
	return s.EnsureBalance(ctx, ownerID)
}

// ReconcileBalance compares the stored balance with the sum of the owner's
// transactions while holding the owner's lock, so no writer can interleave.
func (s *balanceService) ReconcileBalance(ctx context.Context, ownerID string) (decimal.Decimal, decimal.Decimal, error) {
	if _, err := s.EnsureBalance(ctx, ownerID); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var stored, recomputed decimal.Decimal
	err := s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		balance, err := tx.LockBalance(ctx, ownerID)
		if err != nil {
			return err
		}
		stored = balance.Amount

		recomputed, err = s.ledgerRepo.SumTransactionEffects(ctx, ownerID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reconcile balance", slog.String("owner_id", ownerID))
		return decimal.Zero, decimal.Zero, err
	}

	if !stored.Equal(recomputed) {
		err := fmt.Errorf("%w: owner %s stored balance %s, transactions sum to %s",
			apperrors.ErrBalanceDrift, ownerID, stored.StringFixed(domain.AmountScale), recomputed.StringFixed(domain.AmountScale))
		s.LogError(ctx, err, "Balance drifted from transactions", slog.String("owner_id", ownerID))
		return stored, recomputed, err
	}
	return stored, recomputed, nil
}
