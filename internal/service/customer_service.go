package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/mapper"
	"github.com/vietbiz/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CustomerService struct {
	customerRepo *repository.CustomerRepository
	logger       *zap.Logger
}

func NewCustomerService(customerRepo *repository.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (s *CustomerService) Create(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.CustomerDTO, error) {
	customer := &domain.Customer{
		Name:           req.Name,
		TaxCode:        req.TaxCode,
		ContactPerson:  req.ContactPerson,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		HealthScore:    req.HealthScore,
		LifecycleStage: req.LifecycleStage,
	}
	if customer.HealthScore == 0 {
		customer.HealthScore = 80
	}
	if customer.LifecycleStage == "" {
		customer.LifecycleStage = domain.LifecycleLead
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("name", customer.Name),
	)

	dto := mapper.ToCustomerDTO(customer, 0, 0)
	return &dto, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerDTO, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	openDeals, err := s.customerRepo.GetOpenDealsCount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count open deals: %w", err)
	}
	wonValue, err := s.customerRepo.GetWonValue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to sum won deals: %w", err)
	}

	dto := mapper.ToCustomerDTO(customer, openDeals, wonValue)
	return &dto, nil
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.CustomerDTO, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	customer.Name = req.Name
	customer.TaxCode = req.TaxCode
	customer.ContactPerson = req.ContactPerson
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.HealthScore = req.HealthScore
	if req.LifecycleStage != "" {
		customer.LifecycleStage = req.LifecycleStage
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	dto := mapper.ToCustomerDTO(customer, 0, 0)
	return &dto, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customerRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to get customer: %w", err)
	}
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	s.logger.Info("customer deleted", zap.String("customer_id", id.String()))
	return nil
}

func (s *CustomerService) List(ctx context.Context, page, pageSize int, search string, stage *domain.CustomerLifecycleStage) (*domain.PaginatedResponse, error) {
	customers, total, err := s.customerRepo.List(ctx, page, pageSize, search, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	dtos := make([]domain.CustomerDTO, 0, len(customers))
	for i := range customers {
		dtos = append(dtos, mapper.ToCustomerDTO(&customers[i], 0, 0))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// ListRefs returns id/name pairs for selection pickers.
func (s *CustomerService) ListRefs(ctx context.Context) ([]domain.CustomerRefDTO, error) {
	customers, err := s.customerRepo.ListRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	refs := make([]domain.CustomerRefDTO, 0, len(customers))
	for i := range customers {
		refs = append(refs, mapper.ToCustomerRefDTO(&customers[i]))
	}
	return refs, nil
}
