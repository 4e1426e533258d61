package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/mapper"
	"github.com/vietbiz/crm-api/internal/quote"
	"github.com/vietbiz/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService manages the product catalog and serves product snapshots to
// the quote editor.
type CatalogService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

func NewCatalogService(productRepo *repository.ProductRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// LookupProduct implements quote.CatalogLookup. Inactive products are treated
// the same as missing ones: they can no longer be placed on quotes, though
// existing line item snapshots keep working.
func (s *CatalogService) LookupProduct(ctx context.Context, id uuid.UUID) (*quote.ProductSnapshot, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return &quote.ProductSnapshot{
		ID:           product.ID,
		Name:         product.Name,
		Category:     product.Category,
		BillingCycle: product.BillingCycle,
		UnitPrice:    product.UnitPrice,
	}, nil
}

func (s *CatalogService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	if req.SKU != "" {
		if _, err := s.productRepo.GetBySKU(ctx, req.SKU); err == nil {
			return nil, ErrDuplicateSKU
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check sku: %w", err)
		}
	}

	product := &domain.Product{
		Name:         req.Name,
		SKU:          req.SKU,
		Description:  req.Description,
		UnitPrice:    req.UnitPrice,
		Category:     req.Category,
		BillingCycle: req.BillingCycle,
		IsActive:     true,
	}
	if product.Category == "" {
		product.Category = domain.ProductCategorySoftware
	}
	if product.BillingCycle == "" {
		product.BillingCycle = domain.BillingOneTime
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if req.SKU != "" && req.SKU != product.SKU {
		if _, err := s.productRepo.GetBySKU(ctx, req.SKU); err == nil {
			return nil, ErrDuplicateSKU
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check sku: %w", err)
		}
	}

	product.Name = req.Name
	product.SKU = req.SKU
	product.Description = req.Description
	product.UnitPrice = req.UnitPrice
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.BillingCycle != "" {
		product.BillingCycle = req.BillingCycle
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Deactivate retires a product from the catalog. Deals that already snapshot
// it are untouched.
func (s *CatalogService) Deactivate(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}
	product.IsActive = false
	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	return nil
}

func (s *CatalogService) List(ctx context.Context, page, pageSize int, search string, category *domain.ProductCategory, activeOnly bool) (*domain.PaginatedResponse, error) {
	products, total, err := s.productRepo.List(ctx, page, pageSize, search, category, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	dtos := make([]domain.ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, mapper.ToProductDTO(&products[i]))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
