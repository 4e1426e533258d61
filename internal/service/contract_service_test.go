package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var licenseKeyPattern = regexp.MustCompile(`^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$`)

func newContractService(t *testing.T) (*ContractService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewContractService(
		repository.NewContractRepository(db),
		repository.NewDealRepository(db),
		zap.NewNop(),
	)
	return svc, db
}

func seedDeal(t *testing.T, db *gorm.DB, stage domain.DealStage, total int64) *domain.Deal {
	t.Helper()
	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC "+string(stage))
	deal := &domain.Deal{
		Title:        "Deal " + string(stage),
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Stage:        stage,
		TotalValue:   total,
	}
	require.NoError(t, db.Create(deal).Error)
	return deal
}

func TestContractServiceCreateFromWonDeal(t *testing.T) {
	svc, db := newContractService(t)
	ctx := context.Background()

	deal := seedDeal(t, db, domain.DealStageWon, 29_000_000)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	dto, err := svc.Create(ctx, &domain.CreateContractRequest{
		DealID:    deal.ID,
		StartDate: &start,
	})
	require.NoError(t, err)

	assert.Equal(t, "HD-2026-001", dto.ContractCode)
	assert.Equal(t, domain.ContractStatusDraft, dto.Status)
	assert.Equal(t, int64(29_000_000), dto.TotalValue)
	assert.Regexp(t, licenseKeyPattern, dto.LicenseKey)

	// Second contract in the same year draws the next number
	deal2 := seedDeal(t, db, domain.DealStageWon, 5_000_000)
	dto2, err := svc.Create(ctx, &domain.CreateContractRequest{
		DealID:    deal2.ID,
		StartDate: &start,
	})
	require.NoError(t, err)
	assert.Equal(t, "HD-2026-002", dto2.ContractCode)
}

func TestContractServiceRejectsOpenDeal(t *testing.T) {
	svc, db := newContractService(t)
	ctx := context.Background()

	deal := seedDeal(t, db, domain.DealStageNegotiation, 10_000_000)

	_, err := svc.Create(ctx, &domain.CreateContractRequest{DealID: deal.ID})
	assert.ErrorIs(t, err, ErrDealNotWon)
}

func TestContractServiceRejectsDuplicate(t *testing.T) {
	svc, db := newContractService(t)
	ctx := context.Background()

	deal := seedDeal(t, db, domain.DealStageWon, 10_000_000)

	_, err := svc.Create(ctx, &domain.CreateContractRequest{DealID: deal.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &domain.CreateContractRequest{DealID: deal.ID})
	assert.ErrorIs(t, err, ErrContractExists)
}

func TestGenerateLicenseKeyFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		key, err := generateLicenseKey()
		require.NoError(t, err)
		assert.Regexp(t, licenseKeyPattern, key)
		seen[key] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
