package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/expense_ledger/internal/core/ports/services"
	"github.com/SscSPs/expense_ledger/internal/core/services"
	"github.com/SscSPs/expense_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TransactionServiceMockTestSuite struct {
	suite.Suite
	ctx             context.Context
	now             time.Time
	mockRepo        *MockLedgerRepository
	mockTx          *MockLedgerTx
	mockCategorySvc *MockCategoryService
	balanceSvc      portssvc.BalanceSvc
	service         portssvc.TransactionSvcFacade
}

func TestTransactionServiceMockTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceMockTestSuite))
}

func (suite *TransactionServiceMockTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.mockTx = new(MockLedgerTx)
	suite.mockRepo = &MockLedgerRepository{tx: suite.mockTx}
	suite.mockCategorySvc = new(MockCategoryService)

	opts := []services.ServiceOption{
		services.WithClock(func() time.Time { return suite.now }),
		services.WithIDGenerator(func() string { return "txn_fixed" }),
	}
	suite.balanceSvc = services.NewBalanceService(suite.mockRepo, opts...)
	suite.service = services.NewTransactionService(suite.mockRepo, suite.balanceSvc, suite.mockCategorySvc, opts...)
}

func (suite *TransactionServiceMockTestSuite) expenseRequest(amount string) dto.CreateTransactionRequest {
	a := decimal.RequireFromString(amount)
	return dto.CreateTransactionRequest{Name: "Coffee", Kind: "EXPENSE", Amount: &a, CategoryID: "cat_1"}
}

func (suite *TransactionServiceMockTestSuite) expectBootstrap(owner string, balance string) {
	suite.mockRepo.On("CreateBalanceIfAbsent", suite.ctx, owner, suite.now).Return(false, nil).Once()
	suite.mockRepo.On("FindBalanceByOwner", suite.ctx, owner).
		Return(&domain.Balance{OwnerID: owner, Amount: decimal.RequireFromString(balance)}, nil).Once()
}

func (suite *TransactionServiceMockTestSuite) TestCreate_WritesTransactionAndBalance() {
	owner := "user_1"
	suite.mockCategorySvc.On("GetOwnedCategory", suite.ctx, owner, "cat_1").Return(&domain.Category{CategoryID: "cat_1", OwnerID: owner}, nil).Once()
	suite.expectBootstrap(owner, "10")
	suite.mockRepo.On("RunInTx", suite.ctx).Once()
	suite.mockTx.On("LockBalance", suite.ctx, owner).Return(&domain.Balance{OwnerID: owner, Amount: decimal.NewFromInt(10)}, nil).Once()
	suite.mockTx.On("InsertTransaction", suite.ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.TransactionID == "txn_fixed" && txn.OwnerID == owner && txn.Kind == domain.Expense &&
			txn.OccurredOn.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) && txn.CreatedAt.Equal(suite.now)
	})).Return(nil).Once()
	suite.mockTx.On("SetBalance", suite.ctx, owner, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("6.50"))
	}), suite.now).Return(nil).Once()

	txn, err := suite.service.CreateTransaction(suite.ctx, owner, suite.expenseRequest("3.50"))
	suite.Require().NoError(err)
	suite.Equal("txn_fixed", txn.TransactionID)

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockTx.AssertExpectations(suite.T())
	suite.mockCategorySvc.AssertExpectations(suite.T())
}

func (suite *TransactionServiceMockTestSuite) TestCreate_InsufficientBalanceWritesNothing() {
	owner := "user_1"
	suite.mockCategorySvc.On("GetOwnedCategory", suite.ctx, owner, "cat_1").Return(&domain.Category{CategoryID: "cat_1", OwnerID: owner}, nil).Once()
	suite.expectBootstrap(owner, "3")
	suite.mockRepo.On("RunInTx", suite.ctx).Once()
	suite.mockTx.On("LockBalance", suite.ctx, owner).Return(&domain.Balance{OwnerID: owner, Amount: decimal.NewFromInt(3)}, nil).Once()

	_, err := suite.service.CreateTransaction(suite.ctx, owner, suite.expenseRequest("3.01"))
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)

	suite.mockTx.AssertNotCalled(suite.T(), "InsertTransaction", mock.Anything, mock.Anything)
	suite.mockTx.AssertNotCalled(suite.T(), "SetBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceMockTestSuite) TestCreate_BusyLockPropagates() {
	owner := "user_1"
	suite.mockCategorySvc.On("GetOwnedCategory", suite.ctx, owner, "cat_1").Return(&domain.Category{CategoryID: "cat_1", OwnerID: owner}, nil).Once()
	suite.expectBootstrap(owner, "3")
	suite.mockRepo.On("RunInTx", suite.ctx).Once()
	suite.mockTx.On("LockBalance", suite.ctx, owner).Return(nil, apperrors.ErrBusy).Once()

	_, err := suite.service.CreateTransaction(suite.ctx, owner, suite.expenseRequest("1"))
	suite.ErrorIs(err, apperrors.ErrBusy)
	suite.mockTx.AssertNotCalled(suite.T(), "InsertTransaction", mock.Anything, mock.Anything)
}

func (suite *TransactionServiceMockTestSuite) TestCreate_BootstrapFailureStopsBeforeLocking() {
	owner := "user_1"
	dbErr := errors.New("connection refused")
	suite.mockCategorySvc.On("GetOwnedCategory", suite.ctx, owner, "cat_1").Return(&domain.Category{CategoryID: "cat_1", OwnerID: owner}, nil).Once()
	suite.mockRepo.On("CreateBalanceIfAbsent", suite.ctx, owner, suite.now).Return(false, dbErr).Once()

	_, err := suite.service.CreateTransaction(suite.ctx, owner, suite.expenseRequest("1"))
	suite.ErrorIs(err, dbErr)
	suite.mockRepo.AssertNotCalled(suite.T(), "RunInTx", mock.Anything)
}

func (suite *TransactionServiceMockTestSuite) TestUpdate_ConcurrentDeleteIsNotFound() {
	owner := "user_1"
	existing := &domain.Transaction{TransactionID: "t1", OwnerID: owner, Kind: domain.Income, Amount: decimal.NewFromInt(5), CategoryID: "cat_1"}
	suite.mockRepo.On("FindTransactionByID", suite.ctx, "t1").Return(existing, nil).Once()
	suite.mockCategorySvc.On("GetOwnedCategory", suite.ctx, owner, "cat_1").Return(&domain.Category{CategoryID: "cat_1", OwnerID: owner}, nil).Once()
	suite.expectBootstrap(owner, "5")
	suite.mockRepo.On("RunInTx", suite.ctx).Once()
	suite.mockTx.On("LockBalance", suite.ctx, owner).Return(&domain.Balance{OwnerID: owner, Amount: decimal.NewFromInt(5)}, nil).Once()
	suite.mockTx.On("FindTransactionForUpdate", suite.ctx, "t1").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.UpdateTransaction(suite.ctx, "t1", owner, dto.UpdateTransactionRequest(suite.expenseRequest("1")))
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTx.AssertNotCalled(suite.T(), "SetBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceMockTestSuite) TestEnsureBalance_MissingAfterBootstrapIsIntegrityError() {
	suite.mockRepo.On("CreateBalanceIfAbsent", suite.ctx, "user_1", suite.now).Return(false, nil).Once()
	suite.mockRepo.On("FindBalanceByOwner", suite.ctx, "user_1").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.balanceSvc.EnsureBalance(suite.ctx, "user_1")
	suite.ErrorIs(err, apperrors.ErrIntegrity)
}

func (suite *TransactionServiceMockTestSuite) TestEnsureBalance_RequiresOwner() {
	_, err := suite.balanceSvc.EnsureBalance(suite.ctx, "")
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "CreateBalanceIfAbsent", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceMockTestSuite) TestCreate_RoundsAmountToTwoPlaces() {
	owner := "user_1"
	suite.mockCategorySvc.On("GetOwnedCategory", suite.ctx, owner, "cat_1").Return(&domain.Category{CategoryID: "cat_1", OwnerID: owner}, nil).Once()
	suite.expectBootstrap(owner, "10")
	suite.mockRepo.On("RunInTx", suite.ctx).Once()
	suite.mockTx.On("LockBalance", suite.ctx, owner).Return(&domain.Balance{OwnerID: owner, Amount: decimal.NewFromInt(10)}, nil).Once()
	suite.mockTx.On("InsertTransaction", suite.ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Amount.Exponent() == -domain.AmountScale && txn.Amount.String() == "1.5"
	})).Return(nil).Once()
	suite.mockTx.On("SetBalance", suite.ctx, owner, mock.Anything, suite.now).Return(nil).Once()

	txn, err := suite.service.CreateTransaction(suite.ctx, owner, suite.expenseRequest("1.500"))
	suite.Require().NoError(err)
	suite.Equal(int32(-domain.AmountScale), txn.Amount.Exponent())
	suite.mockTx.AssertExpectations(suite.T())
}

func (suite *TransactionServiceMockTestSuite) TestCreate_BalanceBeyondStorableLimitRejected() {
	owner := "user_1"
	nearLimit := domain.MaxBalance.Sub(decimal.NewFromInt(1))
	req := suite.expenseRequest("2")
	req.Kind = "INCOME"
	suite.mockCategorySvc.On("GetOwnedCategory", suite.ctx, owner, "cat_1").Return(&domain.Category{CategoryID: "cat_1", OwnerID: owner}, nil).Once()
	suite.expectBootstrap(owner, nearLimit.String())
	suite.mockRepo.On("RunInTx", suite.ctx).Once()
	suite.mockTx.On("LockBalance", suite.ctx, owner).Return(&domain.Balance{OwnerID: owner, Amount: nearLimit}, nil).Once()

	_, err := suite.service.CreateTransaction(suite.ctx, owner, req)
	var verr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &verr)
	suite.Contains(verr.Fields, "amount")
	suite.mockTx.AssertNotCalled(suite.T(), "InsertTransaction", mock.Anything, mock.Anything)
	suite.mockTx.AssertNotCalled(suite.T(), "SetBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceMockTestSuite) TestUpdate_OwnershipCheckedBeforeBody() {
	invalid := dto.UpdateTransactionRequest{Kind: "bogus"}

	suite.Run("other owner", func() {
		suite.mockRepo.On("FindTransactionByID", suite.ctx, "t1").
			Return(&domain.Transaction{TransactionID: "t1", OwnerID: "user_2"}, nil).Once()
		_, err := suite.service.UpdateTransaction(suite.ctx, "t1", "user_1", invalid)
		suite.ErrorIs(err, apperrors.ErrForbidden)
		suite.NotErrorIs(err, apperrors.ErrValidation)
	})
	suite.Run("missing transaction", func() {
		suite.mockRepo.On("FindTransactionByID", suite.ctx, "gone").Return(nil, apperrors.ErrNotFound).Once()
		_, err := suite.service.UpdateTransaction(suite.ctx, "gone", "user_1", invalid)
		suite.ErrorIs(err, apperrors.ErrNotFound)
	})
	suite.mockRepo.AssertNotCalled(suite.T(), "RunInTx", mock.Anything)
}

func (suite *TransactionServiceMockTestSuite) TestReconcile_DuplicateBalanceRowsIsNotDrift() {
	suite.expectBootstrap("user_1", "0")
	suite.mockRepo.On("RunInTx", suite.ctx).Once()
	suite.mockTx.On("LockBalance", suite.ctx, "user_1").
		Return(nil, fmt.Errorf("%w: owner user_1 has 2 balance rows", apperrors.ErrIntegrity)).Once()

	_, _, err := suite.balanceSvc.ReconcileBalance(suite.ctx, "user_1")
	suite.ErrorIs(err, apperrors.ErrIntegrity)
	suite.NotErrorIs(err, apperrors.ErrBalanceDrift)
	suite.mockRepo.AssertNotCalled(suite.T(), "SumTransactionEffects", mock.Anything, mock.Anything)
}
