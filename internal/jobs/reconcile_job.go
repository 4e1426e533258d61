package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/quote"
	"go.uber.org/zap"
)

// ReconcileJobName is the name of the deal total reconciliation job
const ReconcileJobName = "deal_total_reconcile"

// DefaultReconcileTimeout bounds a single reconciliation run
const DefaultReconcileTimeout = 5 * time.Minute

// DealReconcileStore defines the repository operations the reconciliation job
// needs, so the job does not import the repository package directly.
type DealReconcileStore interface {
	// ListAllWithItems returns every deal with its line items preloaded.
	ListAllWithItems(ctx context.Context) ([]domain.Deal, error)

	// UpdateTotalValue overwrites the stored header total for a deal.
	UpdateTotalValue(ctx context.Context, id uuid.UUID, total int64) error
}

// ReconcileJob verifies that every deal's stored total still equals the sum
// of its line items, and repairs any drift it finds. Drift should never
// happen because saves are transactional; this job exists to catch manual
// database edits and to surface bugs early.
type ReconcileJob struct {
	store   DealReconcileStore
	logger  *zap.Logger
	timeout time.Duration
}

// NewReconcileJob creates a new deal total reconciliation job.
func NewReconcileJob(store DealReconcileStore, logger *zap.Logger, timeout time.Duration) *ReconcileJob {
	return &ReconcileJob{
		store:   store,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one reconciliation pass. This is called by the scheduler
// according to the cron expression.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	checked, repaired, err := j.Reconcile(ctx)
	if err != nil {
		j.logger.Error("deal total reconciliation failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("deal total reconciliation completed",
		zap.Int("deals_checked", checked),
		zap.Int("deals_repaired", repaired),
		zap.Duration("duration", time.Since(start)))
}

// Reconcile walks all deals and repairs any header total that disagrees with
// the sum of its line items. Returns the number of deals checked and repaired.
func (j *ReconcileJob) Reconcile(ctx context.Context) (checked int, repaired int, err error) {
	deals, err := j.store.ListAllWithItems(ctx)
	if err != nil {
		return 0, 0, err
	}

	for i := range deals {
		deal := &deals[i]
		checked++

		expected := quote.SumItems(deal.Items)
		if deal.TotalValue == expected {
			continue
		}

		j.logger.Warn("deal total drifted from line items",
			zap.String("deal_id", deal.ID.String()),
			zap.Int64("stored_total", deal.TotalValue),
			zap.Int64("computed_total", expected))

		if err := j.store.UpdateTotalValue(ctx, deal.ID, expected); err != nil {
			j.logger.Error("failed to repair deal total",
				zap.String("deal_id", deal.ID.String()),
				zap.Error(err))
			continue
		}
		repaired++
	}

	return checked, repaired, nil
}

// RegisterReconcileJob registers the reconciliation job with the scheduler.
func RegisterReconcileJob(scheduler *Scheduler, store DealReconcileStore, logger *zap.Logger, cronExpr string) error {
	job := NewReconcileJob(store, logger, DefaultReconcileTimeout)
	return scheduler.AddJob(ReconcileJobName, cronExpr, job.Run)
}
