package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"gorm.io/gorm"
)

type DealStageHistoryRepository struct {
	db *gorm.DB
}

func NewDealStageHistoryRepository(db *gorm.DB) *DealStageHistoryRepository {
	return &DealStageHistoryRepository{db: db}
}

func (r *DealStageHistoryRepository) Create(ctx context.Context, entry *domain.DealStageHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *DealStageHistoryRepository) GetByDeal(ctx context.Context, dealID uuid.UUID) ([]domain.DealStageHistory, error) {
	var entries []domain.DealStageHistory
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("changed_at DESC").
		Find(&entries).Error
	return entries, err
}
