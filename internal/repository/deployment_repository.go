package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"gorm.io/gorm"
)

// DeploymentFilters contains filter options for listing deployments
type DeploymentFilters struct {
	Status      *domain.DeploymentStatus
	CustomerID  *uuid.UUID
	SearchQuery *string
}

type DeploymentRepository struct {
	db *gorm.DB
}

func NewDeploymentRepository(db *gorm.DB) *DeploymentRepository {
	return &DeploymentRepository{db: db}
}

func (r *DeploymentRepository) Create(ctx context.Context, deployment *domain.Deployment) error {
	return r.db.WithContext(ctx).Create(deployment).Error
}

func (r *DeploymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deployment, error) {
	var deployment domain.Deployment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&deployment).Error
	if err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (r *DeploymentRepository) Update(ctx context.Context, deployment *domain.Deployment) error {
	return r.db.WithContext(ctx).Save(deployment).Error
}

func (r *DeploymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Deployment{}, "id = ?", id).Error
}

// List returns deployments most recently updated first, matching the board
// ordering on the dashboard.
func (r *DeploymentRepository) List(ctx context.Context, page, pageSize int, filters *DeploymentFilters) ([]domain.Deployment, int64, error) {
	var deployments []domain.Deployment
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Deployment{})

	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.CustomerID != nil {
			query = query.Where("customer_id = ?", *filters.CustomerID)
		}
		if filters.SearchQuery != nil && *filters.SearchQuery != "" {
			searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
			query = query.Where(
				"LOWER(app_url) LIKE ? OR LOWER(server_ip) LIKE ? OR LOWER(customer_name) LIKE ?",
				searchPattern, searchPattern, searchPattern,
			)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("updated_at DESC").Find(&deployments).Error

	return deployments, total, err
}
