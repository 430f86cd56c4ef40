package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_ledger/internal/core/ports/services"
	"github.com/SscSPs/expense_ledger/internal/dto"
	"github.com/SscSPs/expense_ledger/internal/utils/accounting"
	"github.com/SscSPs/expense_ledger/internal/utils/validation"
	"github.com/shopspring/decimal"
)

// transactionService applies every transaction mutation together with its
// balance change inside one unit of work that holds the owner's balance lock.
type transactionService struct {
	BaseService
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	balanceSvc  portssvc.BalanceSvc
	categorySvc portssvc.CategorySvcFacade
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(
	ledgerRepo portsrepo.LedgerRepositoryWithTx,
	balanceSvc portssvc.BalanceSvc,
	categorySvc portssvc.CategorySvcFacade,
	options ...ServiceOption,
) portssvc.TransactionSvcFacade {
	svc := &transactionService{
		BaseService: newBaseService(),
		ledgerRepo:  ledgerRepo,
		balanceSvc:  balanceSvc,
		categorySvc: categorySvc,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// transactionFields are the mutable fields shared by create and update.
type transactionFields struct {
	name       string
	kind       domain.TransactionKind
	amount     decimal.Decimal
	occurredOn time.Time
	categoryID string
	note       string
}

func (s *transactionService) parseFields(req dto.CreateTransactionRequest) (transactionFields, error) {
	if err := validation.Struct(req); err != nil {
		return transactionFields{}, err
	}

	if msg := domain.ValidateAmount(*req.Amount); msg != "" {
		return transactionFields{}, apperrors.NewValidationError("amount", msg)
	}

	kind, _ := domain.ParseTransactionKind(req.Kind)
	occurredOn := domain.DateOnly(s.now())
	if req.Date != "" {
		parsed, err := time.Parse(dto.DateLayout, req.Date)
		if err != nil {
			return transactionFields{}, apperrors.NewValidationError("date", "date must be in YYYY-MM-DD format")
		}
		occurredOn = parsed
	}

	return transactionFields{
		name:       strings.TrimSpace(req.Name),
		kind:       kind,
		amount:     *req.Amount,
		occurredOn: occurredOn,
		categoryID: req.CategoryID,
		note:       strings.TrimSpace(req.Note),
	}, nil
}

func (f transactionFields) applyTo(txn *domain.Transaction) {
	txn.Name = f.name
	txn.Kind = f.kind
	txn.Amount = domain.RoundAmount(f.amount)
	txn.OccurredOn = f.occurredOn
	txn.CategoryID = f.categoryID
	txn.Note = f.note
}

// checkCategory requires the category to exist and belong to ownerID.
func (s *transactionService) checkCategory(ctx context.Context, ownerID, categoryID string) error {
	if _, err := s.categorySvc.GetOwnedCategory(ctx, ownerID, categoryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrForbidden) {
			return apperrors.NewValidationError("categoryID", "category not found")
		}
		return err
	}
	return nil
}

// checkBalanceLimit rejects a change whose resulting balance the ledger cannot store.
func checkBalanceLimit(projected decimal.Decimal) error {
	if accounting.ExceedsBalanceLimit(projected) {
		return apperrors.NewValidationError("amount", "resulting balance must stay within ±"+domain.MaxBalance.StringFixed(domain.AmountScale))
	}
	return nil
}

func insufficientBalance(amount, available decimal.Decimal) error {
	return fmt.Errorf("%w: expense of %s exceeds available balance %s",
		apperrors.ErrInsufficientBalance,
		amount.StringFixed(domain.AmountScale),
		available.StringFixed(domain.AmountScale))
}

// logRejection logs expected rejections at warn level and everything else as errors.
func (s *transactionService) logRejection(ctx context.Context, err error, msg string, keyvals ...any) {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInsufficientBalance),
		errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrBusy):
		s.LogWarn(ctx, err, msg, keyvals...)
	default:
		s.LogError(ctx, err, msg, keyvals...)
	}
}

func (s *transactionService) CreateTransaction(ctx context.Context, ownerID string, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	fields, err := s.parseFields(req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	txn := domain.Transaction{
		TransactionID: s.newID(),
		OwnerID:       ownerID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}
	fields.applyTo(&txn)
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, ownerID, txn.CategoryID); err != nil {
		return nil, err
	}

	if _, err := s.balanceSvc.EnsureBalance(ctx, ownerID); err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal
	err = s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		balance, err := tx.LockBalance(ctx, ownerID)
		if err != nil {
			return err
		}
		if accounting.WouldOverdraw(txn.Kind, txn.Amount, balance.Amount) {
			return insufficientBalance(txn.Amount, balance.Amount)
		}

		newBalance = balance.Projected(accounting.DeltaForCreate(txn.Kind, txn.Amount))
		if err := checkBalanceLimit(newBalance); err != nil {
			return err
		}

		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		return tx.SetBalance(ctx, ownerID, newBalance, now)
	})
	if err != nil {
		s.logRejection(ctx, err, "Transaction create rejected",
			slog.String("owner_id", ownerID),
			slog.String("kind", string(txn.Kind)),
			slog.String("amount", txn.Amount.String()))
		return nil, err
	}

	s.LogInfo(ctx, "Transaction created successfully",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("owner_id", ownerID),
		slog.String("balance", newBalance.StringFixed(domain.AmountScale)))
	return &txn, nil
}

func (s *transactionService) UpdateTransaction(ctx context.Context, transactionID string, requestorID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	existing, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != requestorID {
		s.LogWarn(ctx, apperrors.ErrForbidden, "Transaction update by non-owner",
			slog.String("transaction_id", transactionID),
			slog.String("requestor_id", requestorID))
		return nil, fmt.Errorf("%w: transaction %s is owned by another user", apperrors.ErrForbidden, transactionID)
	}
	ownerID := existing.OwnerID

	fields, err := s.parseFields(dto.CreateTransactionRequest(req))
	if err != nil {
		return nil, err
	}

	probe := *existing
	fields.applyTo(&probe)
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, ownerID, fields.categoryID); err != nil {
		return nil, err
	}

	if _, err := s.balanceSvc.EnsureBalance(ctx, ownerID); err != nil {
		return nil, err
	}

	now := s.now()
	var updated domain.Transaction
	var newBalance decimal.Decimal
	err = s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		balance, err := tx.LockBalance(ctx, ownerID)
		if err != nil {
			return err
		}
		// Re-read under the lock; the pre-check above may be stale.
		current, err := tx.FindTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if current.OwnerID != ownerID {
			return fmt.Errorf("%w: transaction %s changed owner", apperrors.ErrIntegrity, transactionID)
		}

		available := accounting.AvailableAfterReversal(balance.Amount, current.Kind, current.Amount)
		if accounting.WouldOverdraw(fields.kind, fields.amount, available) {
			return insufficientBalance(fields.amount, available)
		}

		updated = *current
		fields.applyTo(&updated)
		updated.LastUpdatedAt = now
		updated.LastUpdatedBy = requestorID

		delta := accounting.DeltaForUpdate(current.Kind, current.Amount, updated.Kind, updated.Amount)
		newBalance = balance.Projected(delta)
		if err := checkBalanceLimit(newBalance); err != nil {
			return err
		}

		if err := tx.UpdateTransaction(ctx, updated); err != nil {
			return err
		}
		return tx.SetBalance(ctx, ownerID, newBalance, now)
	})
	if err != nil {
		s.logRejection(ctx, err, "Transaction update rejected",
			slog.String("transaction_id", transactionID),
			slog.String("owner_id", ownerID))
		return nil, err
	}

	s.LogInfo(ctx, "Transaction updated successfully",
		slog.String("transaction_id", transactionID),
		slog.String("owner_id", ownerID),
		slog.String("balance", newBalance.StringFixed(domain.AmountScale)))
	return &updated, nil
}

// DeleteTransaction never fails for balance reasons. A transaction owned by
// someone else is reported as not found.
func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID string, requestorID string) error {
	existing, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if existing.OwnerID != requestorID {
		s.LogWarn(ctx, apperrors.ErrNotFound, "Transaction delete by non-owner",
			slog.String("transaction_id", transactionID),
			slog.String("requestor_id", requestorID))
		return apperrors.ErrNotFound
	}
	ownerID := existing.OwnerID

	if _, err := s.balanceSvc.EnsureBalance(ctx, ownerID); err != nil {
		return err
	}

	now := s.now()
	var newBalance decimal.Decimal
	err = s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		balance, err := tx.LockBalance(ctx, ownerID)
		if err != nil {
			return err
		}
		current, err := tx.FindTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		newBalance = balance.Projected(accounting.DeltaForDelete(current.Kind, current.Amount))
		if err := checkBalanceLimit(newBalance); err != nil {
			return err
		}

		if err := tx.DeleteTransaction(ctx, transactionID); err != nil {
			return err
		}
		return tx.SetBalance(ctx, ownerID, newBalance, now)
	})
	if err != nil {
		s.logRejection(ctx, err, "Transaction delete failed",
			slog.String("transaction_id", transactionID),
			slog.String("owner_id", ownerID))
		return err
	}

	s.LogInfo(ctx, "Transaction deleted successfully",
		slog.String("transaction_id", transactionID),
		slog.String("owner_id", ownerID),
		slog.String("balance", newBalance.StringFixed(domain.AmountScale)))
	return nil
}

func (s *transactionService) GetTransaction(ctx context.Context, transactionID string, requestorID string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.OwnerID != requestorID {
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, ownerID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit == 0 {
		limit = 20
	}

	txns, nextToken, err := s.ledgerRepo.ListTransactionsByOwner(ctx, ownerID, limit, params.NextToken)
	if err != nil {
		s.logRejection(ctx, err, "Failed to list transactions", slog.String("owner_id", ownerID))
		return nil, err
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}
