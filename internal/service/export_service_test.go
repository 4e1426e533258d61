package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/config"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/storage"
	"github.com/vietbiz/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newExportService(t *testing.T) (*ExportService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc, err := NewExportService(
		repository.NewDealRepository(db),
		repository.NewCustomerRepository(db),
		&config.CompanyConfig{
			Name:    "VietBiz Solutions",
			TaxCode: "0312345678",
			Address: "12 Nguyen Hue, District 1, HCMC",
		},
		archive,
		zap.NewNop(),
	)
	require.NoError(t, err)
	return svc, db
}

func seedQuotedDeal(t *testing.T, db *gorm.DB) *domain.Deal {
	t.Helper()
	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")
	deal := &domain.Deal{
		Title:        "CRM rollout",
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Stage:        domain.DealStageNegotiation,
		TotalValue:   29_000_000,
	}
	require.NoError(t, db.Create(deal).Error)
	items := []domain.DealLineItem{
		{DealID: deal.ID, Source: domain.LineItemSourceCustom, Name: "CRM Pro License", UnitPrice: 12_000_000, Quantity: 2, Position: 0},
		{DealID: deal.ID, Source: domain.LineItemSourceCustom, Name: "Onsite training", UnitPrice: 5_000_000, Quantity: 1, Position: 1},
	}
	require.NoError(t, db.Create(&items).Error)
	return deal
}

func TestExportServiceQuotePDF(t *testing.T) {
	svc, db := newExportService(t)
	deal := seedQuotedDeal(t, db)

	export, err := svc.QuotePDF(context.Background(), deal.ID)
	require.NoError(t, err)

	expected := "Quote_Cong ty ABC_" + time.Now().UTC().Format("2006-01-02") + ".pdf"
	assert.Equal(t, expected, export.Filename)
	assert.Equal(t, "application/pdf", export.ContentType)
	require.True(t, len(export.Data) > 4)
	assert.Equal(t, "%PDF", string(export.Data[:4]))
}

func TestExportServiceQuotePrintView(t *testing.T) {
	svc, db := newExportService(t)
	deal := seedQuotedDeal(t, db)

	export, err := svc.QuotePrintView(context.Background(), deal.ID)
	require.NoError(t, err)

	html := string(export.Data)
	assert.Contains(t, html, "Cong ty ABC")
	assert.Contains(t, html, "CRM Pro License")
	// The print view shows the stored total, formatted for screens
	assert.Contains(t, html, "29.000.000 ₫")
}

func TestExportServiceUnknownDeal(t *testing.T) {
	svc, db := newExportService(t)
	_ = db

	_, err := svc.QuotePDF(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestExportServiceDealsReport(t *testing.T) {
	svc, db := newExportService(t)
	seedQuotedDeal(t, db)

	export, err := svc.DealsReport(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, export.Filename, "DealsReport_")
	require.True(t, len(export.Data) > 2)
	assert.Equal(t, "PK", string(export.Data[:2]))
}
