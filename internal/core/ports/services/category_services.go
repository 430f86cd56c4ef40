package services

import (
	"context"

	"github.com/SscSPs/expense_ledger/internal/core/domain"
	"github.com/SscSPs/expense_ledger/internal/dto"
)

// CategorySvcFacade defines category lookup and creation
type CategorySvcFacade interface {
	CreateCategory(ctx context.Context, ownerID string, req dto.CreateCategoryRequest) (*domain.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error)
	// GetOwnedCategory returns the category only if ownerID owns it.
	GetOwnedCategory(ctx context.Context, ownerID string, categoryID string) (*domain.Category, error)
}
