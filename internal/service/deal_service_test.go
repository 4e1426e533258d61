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

func newDealService(t *testing.T) (*DealService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	catalog := NewCatalogService(repository.NewProductRepository(db), logger)
	svc := NewDealService(
		repository.NewDealRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewUserRepository(db),
		repository.NewDealStageHistoryRepository(db),
		catalog,
		logger,
	)
	return svc, db
}

func TestDealServiceCreateComputesTotal(t *testing.T) {
	svc, db := newDealService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")
	product := testutil.CreateTestProduct(t, db, "CRM Pro", 50_000)

	dto, err := svc.Create(ctx, &domain.SaveDealRequest{
		Title:      "CRM rollout",
		CustomerID: &customer.ID,
		Items: []domain.LineItemRequest{
			{Source: domain.LineItemSourceCatalog, ProductID: &product.ID, UnitPrice: 50_000, Quantity: 5},
			{Source: domain.LineItemSourceCustom, Name: "Onsite installation", UnitPrice: 100, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(250_100), dto.TotalValue)
	assert.Equal(t, domain.DealStageNew, dto.Stage)
	assert.Equal(t, customer.Name, dto.CustomerName)
	require.Len(t, dto.Items, 2)
	assert.Equal(t, int64(250_000), dto.Items[0].LineTotal)
	assert.Equal(t, "CRM Pro", dto.Items[0].Name)

	// Stored header total matches the stored items
	var stored domain.Deal
	require.NoError(t, db.Preload("Items").First(&stored, "id = ?", dto.ID).Error)
	var sum int64
	for i := range stored.Items {
		sum += stored.Items[i].LineTotal()
	}
	assert.Equal(t, stored.TotalValue, sum)
}

func TestDealServiceSaveReplacesItems(t *testing.T) {
	svc, db := newDealService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")
	product := testutil.CreateTestProduct(t, db, "CRM Pro", 12_000_000)

	created, err := svc.Create(ctx, &domain.SaveDealRequest{
		Title:      "CRM rollout",
		CustomerID: &customer.ID,
		Items: []domain.LineItemRequest{
			{Source: domain.LineItemSourceCatalog, ProductID: &product.ID, UnitPrice: 12_000_000, Quantity: 1},
			{Source: domain.LineItemSourceCustom, Name: "Training", UnitPrice: 2_000_000, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(16_000_000), created.TotalValue)

	dealID := created.ID

	// Edit: drop the custom line, override the catalog price
	updated, err := svc.Update(ctx, dealID, &domain.SaveDealRequest{
		Title:      "CRM rollout (revised)",
		CustomerID: &customer.ID,
		Items: []domain.LineItemRequest{
			{Source: domain.LineItemSourceCatalog, ProductID: &product.ID, UnitPrice: 9_500_000, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9_500_000), updated.TotalValue)
	require.Len(t, updated.Items, 1)

	// The old rows are gone, not orphaned
	var count int64
	require.NoError(t, db.Model(&domain.DealLineItem{}).Where("deal_id = ?", dealID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDealServiceValidationGate(t *testing.T) {
	svc, db := newDealService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")
	product := testutil.CreateTestProduct(t, db, "CRM Pro", 50_000)

	dealCount := func() int64 {
		var n int64
		require.NoError(t, db.Model(&domain.Deal{}).Count(&n).Error)
		return n
	}

	t.Run("missing customer", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.SaveDealRequest{
			Title: "No customer",
			Items: []domain.LineItemRequest{
				{Source: domain.LineItemSourceCustom, Name: "Thing", UnitPrice: 1, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrCustomerRequired)
	})

	t.Run("unknown customer", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Create(ctx, &domain.SaveDealRequest{
			Title:      "Ghost customer",
			CustomerID: &missing,
			Items: []domain.LineItemRequest{
				{Source: domain.LineItemSourceCustom, Name: "Thing", UnitPrice: 1, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("empty quote", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.SaveDealRequest{
			Title:      "Empty",
			CustomerID: &customer.ID,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("blank custom name", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.SaveDealRequest{
			Title:      "Blank line",
			CustomerID: &customer.ID,
			Items: []domain.LineItemRequest{
				{Source: domain.LineItemSourceCustom, Name: "  ", UnitPrice: 1, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.SaveDealRequest{
			Title:      "Zero qty",
			CustomerID: &customer.ID,
			Items: []domain.LineItemRequest{
				{Source: domain.LineItemSourceCatalog, ProductID: &product.ID, UnitPrice: 50_000, Quantity: 0},
			},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.SaveDealRequest{
			Title:      "Negative price",
			CustomerID: &customer.ID,
			Items: []domain.LineItemRequest{
				{Source: domain.LineItemSourceCustom, Name: "Refund", UnitPrice: -1, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown product", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Create(ctx, &domain.SaveDealRequest{
			Title:      "Ghost product",
			CustomerID: &customer.ID,
			Items: []domain.LineItemRequest{
				{Source: domain.LineItemSourceCatalog, ProductID: &missing, UnitPrice: 1, Quantity: 1},
			},
		})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	// None of the rejected saves wrote anything
	assert.Equal(t, int64(0), dealCount())
}

func TestDealServiceInactiveProductRejected(t *testing.T) {
	svc, db := newDealService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")
	product := testutil.CreateTestProduct(t, db, "Legacy Module", 1_000_000)
	require.NoError(t, db.Model(product).Update("is_active", false).Error)

	_, err := svc.Create(ctx, &domain.SaveDealRequest{
		Title:      "Legacy sale",
		CustomerID: &customer.ID,
		Items: []domain.LineItemRequest{
			{Source: domain.LineItemSourceCatalog, ProductID: &product.ID, UnitPrice: 1_000_000, Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDealServiceUpdateStageRecordsHistory(t *testing.T) {
	svc, db := newDealService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")

	created, err := svc.Create(ctx, &domain.SaveDealRequest{
		Title:      "CRM rollout",
		CustomerID: &customer.ID,
		Items: []domain.LineItemRequest{
			{Source: domain.LineItemSourceCustom, Name: "License", UnitPrice: 10_000_000, Quantity: 1},
		},
	})
	require.NoError(t, err)

	dto, err := svc.UpdateStage(ctx, created.ID, &domain.UpdateDealStageRequest{Stage: domain.DealStageNegotiation})
	require.NoError(t, err)
	assert.Equal(t, domain.DealStageNegotiation, dto.Stage)

	dto, err = svc.UpdateStage(ctx, created.ID, &domain.UpdateDealStageRequest{Stage: domain.DealStageWon})
	require.NoError(t, err)
	assert.Equal(t, domain.DealStageWon, dto.Stage)

	history, err := svc.GetStageHistory(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first
	assert.Equal(t, domain.DealStageWon, history[0].ToStage)
	require.NotNil(t, history[0].FromStage)
	assert.Equal(t, domain.DealStageNegotiation, *history[0].FromStage)
}

func TestDealServiceDeleteRemovesItems(t *testing.T) {
	svc, db := newDealService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")

	created, err := svc.Create(ctx, &domain.SaveDealRequest{
		Title:      "Short lived",
		CustomerID: &customer.ID,
		Items: []domain.LineItemRequest{
			{Source: domain.LineItemSourceCustom, Name: "License", UnitPrice: 5_000, Quantity: 2},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrDealNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.DealLineItem{}).Where("deal_id = ?", created.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDealServicePriceSnapshotSurvivesCatalogEdit(t *testing.T) {
	svc, db := newDealService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")
	product := testutil.CreateTestProduct(t, db, "CRM Pro", 12_000_000)

	created, err := svc.Create(ctx, &domain.SaveDealRequest{
		Title:      "CRM rollout",
		CustomerID: &customer.ID,
		Items: []domain.LineItemRequest{
			{Source: domain.LineItemSourceCatalog, ProductID: &product.ID, UnitPrice: 12_000_000, Quantity: 1},
		},
	})
	require.NoError(t, err)

	// Catalog price changes after the deal is saved
	require.NoError(t, db.Model(product).Update("unit_price", 99_000_000).Error)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12_000_000), got.TotalValue)
	assert.Equal(t, int64(12_000_000), got.Items[0].UnitPrice)
}
