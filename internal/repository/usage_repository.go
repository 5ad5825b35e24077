package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/storewatch/backend/internal/models"
)

type UsageRepository interface {
	Create(ctx context.Context, record *models.AIUsageRecord) error
	List(ctx context.Context, filter *models.UsageFilter) ([]models.AIUsageRecord, int64, error)
	Summarize(ctx context.Context, filter *models.UsageFilter) (*models.UsageSummary, error)
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Create(ctx context.Context, record *models.AIUsageRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *usageRepository) applyFilter(query *gorm.DB, filter *models.UsageFilter) *gorm.DB {
	if filter.Operation != "" {
		query = query.Where("operation = ?", filter.Operation)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", filter.EndDate)
	}
	return query
}

func (r *usageRepository) List(ctx context.Context, filter *models.UsageFilter) ([]models.AIUsageRecord, int64, error) {
	var records []models.AIUsageRecord
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AIUsageRecord{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Summarize sums only the counts that were reported; NULL counts add nothing.
func (r *usageRepository) Summarize(ctx context.Context, filter *models.UsageFilter) (*models.UsageSummary, error) {
	var summary models.UsageSummary
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.AIUsageRecord{}), filter).
		Select("COUNT(*) AS calls, " +
			"COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens, " +
			"COALESCE(SUM(total_tokens), 0) AS total_tokens").
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
