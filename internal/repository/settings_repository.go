package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storewatch/backend/internal/models"
)

// SettingsRepository stores the single incident settings record.
type SettingsRepository interface {
	// Get returns the stored settings, or the defaults when none were saved yet.
	Get(ctx context.Context) (models.IncidentSettings, error)
	Save(ctx context.Context, settings models.IncidentSettings) (models.IncidentSettings, error)
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (models.IncidentSettings, error) {
	var record models.SettingsRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultIncidentSettings(), nil
	}
	if err != nil {
		return models.IncidentSettings{}, err
	}
	return record.ToSettings()
}

func (r *settingsRepository) Save(ctx context.Context, settings models.IncidentSettings) (models.IncidentSettings, error) {
	normalized, err := settings.Normalize()
	if err != nil {
		return models.IncidentSettings{}, err
	}
	record, err := models.NewSettingsRecord(normalized)
	if err != nil {
		return models.IncidentSettings{}, err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"categories", "priorities", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return models.IncidentSettings{}, err
	}
	return normalized, nil
}
