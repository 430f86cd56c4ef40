package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/SscSPs/expense_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_ledger/internal/core/ports/services"
	"github.com/SscSPs/expense_ledger/internal/dto"
	"github.com/SscSPs/expense_ledger/internal/utils/validation"
)

type categoryService struct {
	BaseService
	categoryRepo portsrepo.CategoryRepositoryFacade
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo portsrepo.CategoryRepositoryFacade, options ...ServiceOption) portssvc.CategorySvcFacade {
	svc := &categoryService{
		BaseService:  newBaseService(),
		categoryRepo: repo,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.CategorySvcFacade = (*categoryService)(nil)

func (s *categoryService) CreateCategory(ctx context.Context, ownerID string, req dto.CreateCategoryRequest) (*domain.Category, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}

	now := s.now()
	category := domain.Category{
		CategoryID: s.newID(),
		OwnerID:    ownerID,
		Name:       name,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	if err := s.categoryRepo.SaveCategory(ctx, category); err != nil {
		s.LogError(ctx, err, "Failed to save category",
			slog.String("category_id", category.CategoryID),
			slog.String("owner_id", ownerID))
		return nil, err
	}

	s.LogInfo(ctx, "Category created successfully",
		slog.String("category_id", category.CategoryID),
		slog.String("owner_id", ownerID))
	return &category, nil
}

func (s *categoryService) ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListCategoriesByOwner(ctx, ownerID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list categories", slog.String("owner_id", ownerID))
		return nil, err
	}
	return categories, nil
}

func (s *categoryService) GetOwnedCategory(ctx context.Context, ownerID string, categoryID string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsOwnedBy(ownerID) {
		return nil, fmt.Errorf("%w: category %s belongs to another owner", apperrors.ErrForbidden, categoryID)
	}
	return category, nil
}
