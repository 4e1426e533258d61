package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"gorm.io/gorm"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).
		Preload("Deal").
		Preload("Customer").
		Where("id = ?", id).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) GetByDeal(ctx context.Context, dealID uuid.UUID) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).Where("deal_id = ?", dealID).First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contract{}, "id = ?", id).Error
}

func (r *ContractRepository) List(ctx context.Context, page, pageSize int, search string, status *domain.ContractStatus) ([]domain.Contract, int64, error) {
	var contracts []domain.Contract
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Contract{})

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(contract_code) LIKE ?", searchPattern)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Deal").
		Preload("Customer").
		Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&contracts).Error

	return contracts, total, err
}

func (r *ContractRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Contract, error) {
	var contracts []domain.Contract
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&contracts).Error
	return contracts, err
}

// GetExpiringBetween returns active contracts whose end date falls in the
// given window, for renewal reminders.
func (r *ContractRepository) GetExpiringBetween(ctx context.Context, from, to time.Time) ([]domain.Contract, error) {
	var contracts []domain.Contract
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("status = ?", domain.ContractStatusActive).
		Where("end_date >= ? AND end_date <= ?", from, to).
		Order("end_date ASC").
		Find(&contracts).Error
	return contracts, err
}

// NextContractCode issues the next sequential code for the given year, in
// the form HD-2026-001. It counts inside the caller's transaction so two
// concurrent creates cannot draw the same number.
func (r *ContractRepository) NextContractCode(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var count int64
	prefix := fmt.Sprintf("HD-%d-", year)
	err := db.WithContext(ctx).Model(&domain.Contract{}).
		Where("contract_code LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}

// WithTransaction executes operations within a transaction
func (r *ContractRepository) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
