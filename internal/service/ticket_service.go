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

type TicketService struct {
	ticketRepo   *repository.TicketRepository
	customerRepo *repository.CustomerRepository
	userRepo     *repository.UserRepository
	logger       *zap.Logger
}

func NewTicketService(
	ticketRepo *repository.TicketRepository,
	customerRepo *repository.CustomerRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:   ticketRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

func (s *TicketService) Create(ctx context.Context, req *domain.CreateTicketRequest) (*domain.TicketDTO, error) {
	ticket := &domain.Ticket{
		Title:    req.Title,
		Status:   req.Status,
		Priority: req.Priority,
		Deadline: req.Deadline,
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityNormal
	}
	if err := s.applyCustomer(ctx, ticket, req.CustomerID); err != nil {
		return nil, err
	}
	if err := s.applyAssignee(ctx, ticket, req.AssignedTo); err != nil {
		return nil, err
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("priority", string(ticket.Priority)),
	)

	dto := mapper.ToTicketDTO(ticket)
	return &dto, nil
}

func (s *TicketService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TicketDTO, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	dto := mapper.ToTicketDTO(ticket)
	return &dto, nil
}

func (s *TicketService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTicketRequest) (*domain.TicketDTO, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	ticket.Title = req.Title
	if req.Status != "" {
		ticket.Status = req.Status
	}
	if req.Priority != "" {
		ticket.Priority = req.Priority
	}
	ticket.Deadline = req.Deadline
	if err := s.applyCustomer(ctx, ticket, req.CustomerID); err != nil {
		return nil, err
	}
	if err := s.applyAssignee(ctx, ticket, req.AssignedTo); err != nil {
		return nil, err
	}

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	dto := mapper.ToTicketDTO(ticket)
	return &dto, nil
}

func (s *TicketService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ticketRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get ticket: %w", err)
	}
	if err := s.ticketRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

func (s *TicketService) List(ctx context.Context, page, pageSize int, filters *repository.TicketFilters) (*domain.PaginatedResponse, error) {
	tickets, total, err := s.ticketRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	dtos := make([]domain.TicketDTO, 0, len(tickets))
	for i := range tickets {
		dtos = append(dtos, mapper.ToTicketDTO(&tickets[i]))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *TicketService) applyCustomer(ctx context.Context, ticket *domain.Ticket, customerID *uuid.UUID) error {
	if customerID == nil {
		ticket.CustomerID = nil
		ticket.CustomerName = ""
		return nil
	}
	customer, err := s.customerRepo.GetByID(ctx, *customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to get customer: %w", err)
	}
	ticket.CustomerID = &customer.ID
	ticket.CustomerName = customer.Name
	return nil
}

func (s *TicketService) applyAssignee(ctx context.Context, ticket *domain.Ticket, assignedTo *uuid.UUID) error {
	if assignedTo == nil {
		ticket.AssignedTo = nil
		ticket.AssigneeName = ""
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, *assignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	ticket.AssignedTo = &user.ID
	ticket.AssigneeName = user.FullName
	return nil
}
