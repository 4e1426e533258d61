package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newCatalogService(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewCatalogService(repository.NewProductRepository(db), zap.NewNop()), db
}

func TestCatalogServiceLookupProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	product := testutil.CreateTestProduct(t, db, "CRM Pro", 12_000_000)

	snap, err := svc.LookupProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, snap.ID)
	assert.Equal(t, "CRM Pro", snap.Name)
	assert.Equal(t, int64(12_000_000), snap.UnitPrice)
	assert.Equal(t, domain.ProductCategorySoftware, snap.Category)
}

func TestCatalogServiceLookupUnknownProduct(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.LookupProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalogServiceLookupInactiveProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	product := testutil.CreateTestProduct(t, db, "Legacy", 1_000)
	require.NoError(t, svc.Deactivate(ctx, product.ID))

	_, err := svc.LookupProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalogServiceCreateDefaults(t *testing.T) {
	svc, _ := newCatalogService(t)

	dto, err := svc.Create(context.Background(), &domain.CreateProductRequest{
		Name:      "Backup Service",
		SKU:       "BK-001",
		UnitPrice: 500_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductCategorySoftware, dto.Category)
	assert.Equal(t, domain.BillingOneTime, dto.BillingCycle)
	assert.True(t, dto.IsActive)
}

func TestCatalogServiceDuplicateSKU(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	testutil.CreateTestProduct(t, db, "First", 1_000)

	_, err := svc.Create(ctx, &domain.CreateProductRequest{
		Name:      "Second",
		SKU:       "SKU-First",
		UnitPrice: 2_000,
	})
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestCatalogServiceListActiveOnly(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	active := testutil.CreateTestProduct(t, db, "Active", 1_000)
	retired := testutil.CreateTestProduct(t, db, "Retired", 2_000)
	require.NoError(t, svc.Deactivate(ctx, retired.ID))

	resp, err := svc.List(ctx, 1, 20, "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)

	dtos := resp.Data.([]domain.ProductDTO)
	require.Len(t, dtos, 1)
	assert.Equal(t, active.ID, dtos[0].ID)
}
