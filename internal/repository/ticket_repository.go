package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"gorm.io/gorm"
)

// TicketFilters contains filter options for listing tickets
type TicketFilters struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	CustomerID  *uuid.UUID
	AssignedTo  *uuid.UUID
	SearchQuery *string
}

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Ticket{}, "id = ?", id).Error
}

func (r *TicketRepository) List(ctx context.Context, page, pageSize int, filters *TicketFilters) ([]domain.Ticket, int64, error) {
	var tickets []domain.Ticket
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Ticket{})

	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.Priority != nil {
			query = query.Where("priority = ?", *filters.Priority)
		}
		if filters.CustomerID != nil {
			query = query.Where("customer_id = ?", *filters.CustomerID)
		}
		if filters.AssignedTo != nil {
			query = query.Where("assigned_to = ?", *filters.AssignedTo)
		}
		if filters.SearchQuery != nil && *filters.SearchQuery != "" {
			searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(customer_name) LIKE ?", searchPattern, searchPattern)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&tickets).Error

	return tickets, total, err
}

// CountOpen returns the number of tickets not yet resolved or closed
func (r *TicketRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Ticket{}).
		Where("status IN ?", []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress}).
		Count(&count).Error
	return count, err
}

// GetOverdue returns open tickets past their deadline
func (r *TicketRepository) GetOverdue(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress}).
		Where("deadline IS NOT NULL AND deadline < ?", now).
		Order("deadline ASC").
		Find(&tickets).Error
	return tickets, err
}
