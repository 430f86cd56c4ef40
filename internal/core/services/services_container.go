package services

import (
	portsrepo "github.com/SscSPs/expense_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_ledger/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, options ...ServiceOption) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Balance and category services first since the transaction service depends on them
	container.Balance = NewBalanceService(repos.LedgerRepo, options...)
	container.Category = NewCategoryService(repos.CategoryRepo, options...)

	container.Transaction = NewTransactionService(
		repos.LedgerRepo,
		container.Balance,
		container.Category,
		options...,
	)

	return container
}
