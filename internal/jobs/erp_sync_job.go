package jobs

import (
	"context"
	"time"

	"github.com/vietbiz/crm-api/internal/erp"
	"go.uber.org/zap"
)

// ERPSyncJobName is the name of the ERP price list sync job
const ERPSyncJobName = "erp_price_sync"

// PriceListSource defines the ERP operations the sync job needs.
type PriceListSource interface {
	FetchPriceList(ctx context.Context) ([]erp.PriceEntry, error)
	IsEnabled() bool
}

// ProductPriceStore updates catalog prices by SKU. Only products that exist
// in the catalog are touched; unknown SKUs are counted and skipped.
type ProductPriceStore interface {
	UpdatePriceBySKU(ctx context.Context, sku string, unitPrice int64) (int64, error)
}

// ERPSyncJob pulls the official price list from the ERP and updates catalog
// unit prices. Existing deal line items are never touched; they keep the
// price snapshot taken when the deal was saved.
type ERPSyncJob struct {
	source  PriceListSource
	store   ProductPriceStore
	logger  *zap.Logger
	timeout time.Duration
}

// NewERPSyncJob creates a new ERP price list sync job.
func NewERPSyncJob(source PriceListSource, store ProductPriceStore, logger *zap.Logger, timeout time.Duration) *ERPSyncJob {
	return &ERPSyncJob{
		source:  source,
		store:   store,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one sync pass. This is called by the scheduler according to
// the cron expression.
func (j *ERPSyncJob) Run() {
	if !j.source.IsEnabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	updated, skipped, err := j.Sync(ctx)
	if err != nil {
		j.logger.Error("erp price sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("erp price sync completed",
		zap.Int("products_updated", updated),
		zap.Int("skus_skipped", skipped),
		zap.Duration("duration", time.Since(start)))
}

// Sync fetches the price list and applies it to the catalog. Returns the
// number of products updated and the number of unknown SKUs skipped.
func (j *ERPSyncJob) Sync(ctx context.Context) (updated int, skipped int, err error) {
	entries, err := j.source.FetchPriceList(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		rows, err := j.store.UpdatePriceBySKU(ctx, entry.SKU, entry.UnitPrice)
		if err != nil {
			j.logger.Error("failed to update catalog price",
				zap.String("sku", entry.SKU),
				zap.Error(err))
			continue
		}
		if rows == 0 {
			skipped++
			continue
		}
		updated++
	}

	return updated, skipped, nil
}

// RegisterERPSyncJob registers the ERP price sync job with the scheduler.
// It is a no-op when the ERP client is nil or disabled.
func RegisterERPSyncJob(scheduler *Scheduler, source PriceListSource, store ProductPriceStore, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	if source == nil || !source.IsEnabled() {
		logger.Info("erp price sync job not registered, erp connection disabled")
		return nil
	}
	job := NewERPSyncJob(source, store, logger, timeout)
	return scheduler.AddJob(ERPSyncJobName, cronExpr, job.Run)
}
