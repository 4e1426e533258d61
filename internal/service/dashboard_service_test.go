package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/testutil"
	"go.uber.org/zap"
)

func TestDashboardServiceGetMetrics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	svc := NewDashboardService(
		repository.NewDealRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewProductRepository(db),
		repository.NewTicketRepository(db),
		repository.NewTaskRepository(db),
		logger,
	)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")
	testutil.CreateTestProduct(t, db, "CRM Pro", 12_000_000)

	seed := func(stage domain.DealStage, total int64) {
		deal := &domain.Deal{
			Title:        "Deal",
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Stage:        stage,
			TotalValue:   total,
		}
		require.NoError(t, db.Create(deal).Error)
	}
	seed(domain.DealStageNew, 10_000_000)
	seed(domain.DealStageNegotiation, 20_000_000)
	seed(domain.DealStageWon, 29_000_000)
	seed(domain.DealStageLost, 7_000_000)

	require.NoError(t, db.Create(&domain.Ticket{
		Title:    "Printer on fire",
		Status:   domain.TicketStatusOpen,
		Priority: domain.TicketPriorityHigh,
	}).Error)

	metrics, err := svc.GetMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), metrics.TotalCustomers)
	assert.Equal(t, int64(1), metrics.TotalProducts)
	assert.Equal(t, int64(2), metrics.OpenDeals)
	assert.Equal(t, int64(29_000_000), metrics.WonRevenue)
	assert.Equal(t, int64(30_000_000), metrics.PipelineValue)
	assert.Equal(t, int64(1), metrics.DealsByStage[domain.DealStageWon])
	assert.Equal(t, int64(1), metrics.OpenTickets)
	assert.Len(t, metrics.RecentDeals, 4)
}
