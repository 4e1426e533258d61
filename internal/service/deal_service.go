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

// DealService owns the deal lifecycle. Every save runs the full validation
// gate first, recomputes the total through the quote aggregator, and then
// writes header plus line items in one transaction. The stored total is
// never accepted from the client.
type DealService struct {
	dealRepo     *repository.DealRepository
	customerRepo *repository.CustomerRepository
	userRepo     *repository.UserRepository
	historyRepo  *repository.DealStageHistoryRepository
	catalog      quote.CatalogLookup
	logger       *zap.Logger
}

func NewDealService(
	dealRepo *repository.DealRepository,
	customerRepo *repository.CustomerRepository,
	userRepo *repository.UserRepository,
	historyRepo *repository.DealStageHistoryRepository,
	catalog quote.CatalogLookup,
	logger *zap.Logger,
) *DealService {
	return &DealService{
		dealRepo:     dealRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		historyRepo:  historyRepo,
		catalog:      catalog,
		logger:       logger,
	}
}

// Create validates and stores a new deal with its quote.
func (s *DealService) Create(ctx context.Context, req *domain.SaveDealRequest) (*domain.DealDTO, error) {
	return s.save(ctx, nil, req)
}

// Update validates and stores an edited deal. The submitted line item set
// replaces the stored one wholesale.
func (s *DealService) Update(ctx context.Context, id uuid.UUID, req *domain.SaveDealRequest) (*domain.DealDTO, error) {
	return s.save(ctx, &id, req)
}

func (s *DealService) save(ctx context.Context, id *uuid.UUID, req *domain.SaveDealRequest) (*domain.DealDTO, error) {
	// Validation gate: everything below must pass before any write happens.
	if req.CustomerID == nil {
		return nil, ErrCustomerRequired
	}
	customer, err := s.customerRepo.GetByID(ctx, *req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	builder, err := s.buildQuote(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if err := builder.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if req.Stage != "" && !req.Stage.IsValid() {
		return nil, ErrInvalidStage
	}

	var deal *domain.Deal
	var previousStage *domain.DealStage
	if id == nil {
		deal = &domain.Deal{Stage: domain.DealStageNew}
	} else {
		deal, err = s.dealRepo.GetByID(ctx, *id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDealNotFound
			}
			return nil, fmt.Errorf("failed to get deal: %w", err)
		}
		stage := deal.Stage
		previousStage = &stage
	}

	deal.Title = req.Title
	deal.CustomerID = customer.ID
	deal.CustomerName = customer.Name
	deal.ExpectedCloseDate = req.ExpectedCloseDate
	if req.Stage != "" {
		deal.Stage = req.Stage
	}
	if err := s.resolveAssignee(ctx, deal, req.AssignedTo); err != nil {
		return nil, err
	}

	// The stored total is whatever the aggregator says the lines sum to.
	deal.TotalValue = builder.Total()

	items := make([]domain.DealLineItem, 0, builder.Len())
	for _, line := range builder.Lines() {
		items = append(items, domain.DealLineItem{
			Source:       line.Source,
			ProductID:    line.ProductID,
			Name:         line.Name,
			Category:     line.Category,
			BillingCycle: line.BillingCycle,
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
		})
	}

	if err := s.dealRepo.Save(ctx, deal, items); err != nil {
		return nil, fmt.Errorf("failed to save deal: %w", err)
	}

	if previousStage != nil && *previousStage != deal.Stage {
		s.recordStageChange(ctx, deal, previousStage)
	} else if previousStage == nil && deal.Stage != domain.DealStageNew {
		s.recordStageChange(ctx, deal, nil)
	}

	s.logger.Info("deal saved",
		zap.String("deal_id", deal.ID.String()),
		zap.String("stage", string(deal.Stage)),
		zap.Int64("total_value", deal.TotalValue),
		zap.Int("items", len(items)),
	)

	deal.Customer = customer
	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

// buildQuote replays the submitted rows through the quote editor. Catalog
// rows are re-snapshotted from the live catalog, then the submitted price is
// applied on top so sales overrides survive the round trip.
func (s *DealService) buildQuote(ctx context.Context, items []domain.LineItemRequest) (*quote.Builder, error) {
	builder := quote.NewBuilder(s.catalog)
	for i, item := range items {
		switch item.Source {
		case domain.LineItemSourceCatalog:
			if item.ProductID == nil {
				return nil, fmt.Errorf("%w: line %d is missing a product reference", ErrInvalidInput, i+1)
			}
			idx, err := builder.AddCatalogLine(ctx, *item.ProductID)
			if err != nil {
				if errors.Is(err, ErrProductNotFound) {
					return nil, fmt.Errorf("%w: line %d", ErrProductNotFound, i+1)
				}
				return nil, err
			}
			if err := builder.SetQuantity(idx, item.Quantity); err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidInput, i+1, err.Error())
			}
			if err := builder.SetUnitPrice(idx, item.UnitPrice); err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidInput, i+1, err.Error())
			}
		case domain.LineItemSourceCustom:
			idx := builder.AddCustomLine()
			if err := builder.SetName(idx, item.Name); err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidInput, i+1, err.Error())
			}
			if err := builder.SetQuantity(idx, item.Quantity); err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidInput, i+1, err.Error())
			}
			if err := builder.SetUnitPrice(idx, item.UnitPrice); err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidInput, i+1, err.Error())
			}
		default:
			return nil, fmt.Errorf("%w: line %d has unknown source %q", ErrInvalidInput, i+1, item.Source)
		}
	}
	return builder, nil
}

func (s *DealService) resolveAssignee(ctx context.Context, deal *domain.Deal, assignedTo *uuid.UUID) error {
	if assignedTo == nil {
		deal.AssignedTo = nil
		deal.AssigneeName = ""
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, *assignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	deal.AssignedTo = &user.ID
	deal.AssigneeName = user.FullName
	return nil
}

func (s *DealService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DealDTO, error) {
	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) List(ctx context.Context, page, pageSize int, filters *repository.DealFilters) (*domain.PaginatedResponse, error) {
	deals, total, err := s.dealRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	dtos := make([]domain.DealDTO, 0, len(deals))
	for i := range deals {
		dtos = append(dtos, mapper.ToDealDTO(&deals[i]))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *DealService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.dealRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDealNotFound
		}
		return fmt.Errorf("failed to get deal: %w", err)
	}
	if err := s.dealRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	s.logger.Info("deal deleted", zap.String("deal_id", id.String()))
	return nil
}

// UpdateStage moves a deal through the pipeline and records the transition.
// Transitions are free-form: a lost deal can be reopened.
func (s *DealService) UpdateStage(ctx context.Context, id uuid.UUID, req *domain.UpdateDealStageRequest) (*domain.DealDTO, error) {
	if !req.Stage.IsValid() {
		return nil, ErrInvalidStage
	}

	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	if deal.Stage == req.Stage {
		dto := mapper.ToDealDTO(deal)
		return &dto, nil
	}

	previousStage := deal.Stage
	if err := s.dealRepo.UpdateStage(ctx, id, req.Stage); err != nil {
		return nil, fmt.Errorf("failed to update stage: %w", err)
	}
	deal.Stage = req.Stage
	s.recordStageChange(ctx, deal, &previousStage)

	s.logger.Info("deal stage changed",
		zap.String("deal_id", id.String()),
		zap.String("from", string(previousStage)),
		zap.String("to", string(req.Stage)),
	)

	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) GetStageHistory(ctx context.Context, dealID uuid.UUID) ([]domain.DealStageHistoryDTO, error) {
	if _, err := s.dealRepo.GetByID(ctx, dealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	entries, err := s.historyRepo.GetByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage history: %w", err)
	}

	dtos := make([]domain.DealStageHistoryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, mapper.ToDealStageHistoryDTO(&entries[i]))
	}
	return dtos, nil
}

func (s *DealService) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.DealDTO, error) {
	deals, err := s.dealRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer deals: %w", err)
	}
	dtos := make([]domain.DealDTO, 0, len(deals))
	for i := range deals {
		dtos = append(dtos, mapper.ToDealDTO(&deals[i]))
	}
	return dtos, nil
}

// recordStageChange appends to the stage audit trail. History is advisory;
// a failed insert is logged but never fails the main operation.
func (s *DealService) recordStageChange(ctx context.Context, deal *domain.Deal, from *domain.DealStage) {
	entry := &domain.DealStageHistory{
		DealID:        deal.ID,
		FromStage:     from,
		ToStage:       deal.Stage,
		ChangedByID:   deal.AssignedTo,
		ChangedByName: deal.AssigneeName,
	}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record stage change",
			zap.String("deal_id", deal.ID.String()),
			zap.Error(err),
		)
	}
}
