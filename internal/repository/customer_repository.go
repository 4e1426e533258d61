package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Customer{}, "id = ?", id).Error
}

func (r *CustomerRepository) List(ctx context.Context, page, pageSize int, search string, stage *domain.CustomerLifecycleStage) ([]domain.Customer, int64, error) {
	var customers []domain.Customer
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Customer{})

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(tax_code) LIKE ? OR LOWER(contact_person) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}
	if stage != nil {
		query = query.Where("lifecycle_stage = ?", *stage)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&customers).Error

	return customers, total, err
}

// ListRefs returns id/name pairs for every customer, used by selection
// pickers in the deal and ticket editors.
func (r *CustomerRepository) ListRefs(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := r.db.WithContext(ctx).
		Select("id", "name").
		Order("name ASC").
		Find(&customers).Error
	return customers, err
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).Count(&count).Error
	return count, err
}

func (r *CustomerRepository) GetOpenDealsCount(ctx context.Context, customerID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Where("customer_id = ?", customerID).
		Where("stage NOT IN ?", []domain.DealStage{domain.DealStageWon, domain.DealStageLost}).
		Count(&count).Error
	return int(count), err
}

func (r *CustomerRepository) GetWonValue(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Where("customer_id = ?", customerID).
		Where("stage = ?", domain.DealStageWon).
		Select("COALESCE(SUM(total_value), 0)").
		Scan(&total).Error
	return total, err
}
