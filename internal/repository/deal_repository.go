package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DealFilters contains filter options for listing deals
type DealFilters struct {
	Stage         *domain.DealStage
	CustomerID    *uuid.UUID
	AssignedTo    *uuid.UUID
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SearchQuery   *string
}

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Save writes a deal header and its full line item set in one transaction.
// Stored items are replaced wholesale: delete everything under the deal, then
// insert the submitted set in order. A failure anywhere rolls the whole save
// back, so readers never observe a header without its items.
func (r *DealRepository) Save(ctx context.Context, deal *domain.Deal, items []domain.DealLineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(deal).Error; err != nil {
			return err
		}
		if err := tx.Where("deal_id = ?", deal.ID).Delete(&domain.DealLineItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].DealID = deal.ID
			items[i].Position = i
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		deal.Items = items
		return nil
	})
}

func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deal, error) {
	var deal domain.Deal
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *DealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", id).Delete(&domain.DealLineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("deal_id = ?", id).Delete(&domain.DealStageHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Deal{}, "id = ?", id).Error
	})
}

func (r *DealRepository) List(ctx context.Context, page, pageSize int, filters *DealFilters) ([]domain.Deal, int64, error) {
	var deals []domain.Deal
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Deal{})
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&deals).Error

	return deals, total, err
}

// GetByCustomer returns all deals for a specific customer
func (r *DealRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Deal, error) {
	var deals []domain.Deal
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&deals).Error
	return deals, err
}

// GetRecent returns the most recently updated deals for the dashboard
func (r *DealRepository) GetRecent(ctx context.Context, limit int) ([]domain.Deal, error) {
	var deals []domain.Deal
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&deals).Error
	return deals, err
}

// UpdateStage updates only the stage field (used with stage history tracking)
func (r *DealRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.DealStage) error {
	updates := map[string]interface{}{
		"stage":      stage,
		"updated_at": time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Model(&domain.Deal{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateTotalValue overwrites the stored total, used by the reconciliation
// job when a stored total has drifted from its line items.
func (r *DealRepository) UpdateTotalValue(ctx context.Context, id uuid.UUID, total int64) error {
	return r.db.WithContext(ctx).Model(&domain.Deal{}).
		Where("id = ?", id).
		Update("total_value", total).Error
}

// CountByStage returns deal counts grouped by pipeline stage
func (r *DealRepository) CountByStage(ctx context.Context) (map[domain.DealStage]int64, error) {
	type stageRow struct {
		Stage domain.DealStage
		Count int64
	}
	var rows []stageRow
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Select("stage, COUNT(*) as count").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.DealStage]int64, len(rows))
	for _, row := range rows {
		counts[row.Stage] = row.Count
	}
	return counts, nil
}

// GetWonValue returns the summed total of all won deals
func (r *DealRepository) GetWonValue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Where("stage = ?", domain.DealStageWon).
		Select("COALESCE(SUM(total_value), 0)").
		Scan(&total).Error
	return total, err
}

// GetPipelineValue returns the summed total of all open deals
func (r *DealRepository) GetPipelineValue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Where("stage NOT IN ?", []domain.DealStage{domain.DealStageWon, domain.DealStageLost}).
		Select("COALESCE(SUM(total_value), 0)").
		Scan(&total).Error
	return total, err
}

// ListAllWithItems streams every deal with its items, used by the totals
// reconciliation job.
func (r *DealRepository) ListAllWithItems(ctx context.Context) ([]domain.Deal, error) {
	var deals []domain.Deal
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&deals).Error
	return deals, err
}

func (r *DealRepository) applyFilters(query *gorm.DB, filters *DealFilters) *gorm.DB {
	if filters == nil {
		return query
	}

	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}
	if filters.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filters.CreatedAfter)
	}
	if filters.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filters.CreatedBefore)
	}
	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		searchPattern := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(customer_name) LIKE ?", searchPattern, searchPattern)
	}

	return query
}
