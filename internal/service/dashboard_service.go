package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/mapper"
	"github.com/vietbiz/crm-api/internal/repository"
	"go.uber.org/zap"
)

const recentDealsLimit = 5

// DashboardService aggregates the KPI tiles on the reports page. Every money
// figure comes from stored deal totals, which in turn only ever come from the
// quote aggregator.
type DashboardService struct {
	dealRepo     *repository.DealRepository
	customerRepo *repository.CustomerRepository
	productRepo  *repository.ProductRepository
	ticketRepo   *repository.TicketRepository
	taskRepo     *repository.TaskRepository
	logger       *zap.Logger
}

func NewDashboardService(
	dealRepo *repository.DealRepository,
	customerRepo *repository.CustomerRepository,
	productRepo *repository.ProductRepository,
	ticketRepo *repository.TicketRepository,
	taskRepo *repository.TaskRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		dealRepo:     dealRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		ticketRepo:   ticketRepo,
		taskRepo:     taskRepo,
		logger:       logger,
	}
}

func (s *DashboardService) GetMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	metrics := &domain.DashboardMetrics{}

	var err error
	if metrics.TotalCustomers, err = s.customerRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if metrics.TotalProducts, err = s.productRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if metrics.WonRevenue, err = s.dealRepo.GetWonValue(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum won revenue: %w", err)
	}
	if metrics.PipelineValue, err = s.dealRepo.GetPipelineValue(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum pipeline value: %w", err)
	}
	if metrics.DealsByStage, err = s.dealRepo.CountByStage(ctx); err != nil {
		return nil, fmt.Errorf("failed to count deals by stage: %w", err)
	}
	if metrics.OpenTickets, err = s.ticketRepo.CountOpen(ctx); err != nil {
		return nil, fmt.Errorf("failed to count open tickets: %w", err)
	}
	if metrics.OverdueTasks, err = s.taskRepo.CountOverdue(ctx, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	metrics.OpenDeals = metrics.DealsByStage[domain.DealStageNew] + metrics.DealsByStage[domain.DealStageNegotiation]

	recent, err := s.dealRepo.GetRecent(ctx, recentDealsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent deals: %w", err)
	}
	metrics.RecentDeals = make([]domain.DealDTO, 0, len(recent))
	for i := range recent {
		metrics.RecentDeals = append(metrics.RecentDeals, mapper.ToDealDTO(&recent[i]))
	}

	return metrics, nil
}
