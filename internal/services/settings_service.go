package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
)

type SettingsService interface {
	Get(ctx context.Context) (models.IncidentSettings, error)
	Update(ctx context.Context, req *models.SettingsUpdateRequest) (models.IncidentSettings, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	log          *zap.Logger
}

func NewSettingsService(settingsRepo repository.SettingsRepository, log *zap.Logger) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, log: log}
}

func (s *settingsService) Get(ctx context.Context) (models.IncidentSettings, error) {
	return s.settingsRepo.Get(ctx)
}

// Update replaces the configured categories and priorities. Existing incidents keep the category
// they were created with.
func (s *settingsService) Update(ctx context.Context, req *models.SettingsUpdateRequest) (models.IncidentSettings, error) {
	settings := models.IncidentSettings{Categories: req.Categories}
	for _, p := range req.Priorities {
		settings.Priorities = append(settings.Priorities, models.Priority(p))
	}

	saved, err := s.settingsRepo.Save(ctx, settings)
	if err != nil {
		return models.IncidentSettings{}, err
	}

	s.log.Info("incident settings updated",
		zap.Strings("categories", saved.Categories),
		zap.Int("priorities", len(saved.Priorities)),
	)
	return saved, nil
}
