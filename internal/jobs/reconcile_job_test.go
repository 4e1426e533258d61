package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/erp"
	"go.uber.org/zap"
)

type fakeDealStore struct {
	deals   []domain.Deal
	updates map[uuid.UUID]int64
}

func (f *fakeDealStore) ListAllWithItems(_ context.Context) ([]domain.Deal, error) {
	return f.deals, nil
}

func (f *fakeDealStore) UpdateTotalValue(_ context.Context, id uuid.UUID, total int64) error {
	if f.updates == nil {
		f.updates = make(map[uuid.UUID]int64)
	}
	f.updates[id] = total
	return nil
}

func TestReconcileJobRepairsDrift(t *testing.T) {
	consistent := domain.Deal{
		BaseModel:  domain.BaseModel{ID: uuid.New()},
		TotalValue: 15_000_000,
		Items: []domain.DealLineItem{
			{Name: "License", UnitPrice: 5_000_000, Quantity: 3},
		},
	}
	drifted := domain.Deal{
		BaseModel:  domain.BaseModel{ID: uuid.New()},
		TotalValue: 1, // edited behind the application's back
		Items: []domain.DealLineItem{
			{Name: "Support", UnitPrice: 2_000_000, Quantity: 2},
		},
	}

	store := &fakeDealStore{deals: []domain.Deal{consistent, drifted}}
	job := NewReconcileJob(store, zap.NewNop(), DefaultReconcileTimeout)

	checked, repaired, err := job.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	assert.Equal(t, 1, repaired)

	require.Len(t, store.updates, 1)
	assert.Equal(t, int64(4_000_000), store.updates[drifted.ID])
}

type fakePriceSource struct {
	entries []erp.PriceEntry
}

func (f *fakePriceSource) FetchPriceList(_ context.Context) ([]erp.PriceEntry, error) {
	return f.entries, nil
}

func (f *fakePriceSource) IsEnabled() bool { return true }

type fakePriceStore struct {
	known   map[string]bool
	applied map[string]int64
}

func (f *fakePriceStore) UpdatePriceBySKU(_ context.Context, sku string, unitPrice int64) (int64, error) {
	if !f.known[sku] {
		return 0, nil
	}
	if f.applied == nil {
		f.applied = make(map[string]int64)
	}
	f.applied[sku] = unitPrice
	return 1, nil
}

func TestERPSyncJobSkipsUnknownSKUs(t *testing.T) {
	source := &fakePriceSource{entries: []erp.PriceEntry{
		{SKU: "CRM-PRO", UnitPrice: 12_500_000},
		{SKU: "LEGACY-01", UnitPrice: 900_000},
	}}
	store := &fakePriceStore{known: map[string]bool{"CRM-PRO": true}}

	job := NewERPSyncJob(source, store, zap.NewNop(), DefaultReconcileTimeout)
	updated, skipped, err := job.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, int64(12_500_000), store.applied["CRM-PRO"])
}
