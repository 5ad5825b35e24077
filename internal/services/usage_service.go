package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
)

type UsageService interface {
	Record(ctx context.Context, userID *uuid.UUID, op models.UsageOperation, model string, usage *models.AIUsage) error
	List(ctx context.Context, filter *models.UsageFilter) ([]models.AIUsageRecord, int64, error)
	Summary(ctx context.Context, filter *models.UsageFilter) (*models.UsageSummary, error)
}

type usageService struct {
	usageRepo repository.UsageRepository
	log       *zap.Logger
}

func NewUsageService(usageRepo repository.UsageRepository, log *zap.Logger) UsageService {
	return &usageService{usageRepo: usageRepo, log: log}
}

// Record stores one inference call. Counts the endpoint did not report stay NULL.
func (s *usageService) Record(ctx context.Context, userID *uuid.UUID, op models.UsageOperation, model string, usage *models.AIUsage) error {
	record := &models.AIUsageRecord{
		UserID:    userID,
		Operation: op,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
	if usage != nil {
		record.InputTokens = usage.InputTokens
		record.OutputTokens = usage.OutputTokens
		record.TotalTokens = usage.TotalTokens
	}

	if err := s.usageRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("record %s usage: %w", op, err)
	}
	return nil
}

func (s *usageService) List(ctx context.Context, filter *models.UsageFilter) ([]models.AIUsageRecord, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Operation != "" && filter.Operation != string(models.UsageClassify) && filter.Operation != string(models.UsageTranscribe) {
		return nil, 0, fmt.Errorf("%w: unknown operation %q", models.ErrValidation, filter.Operation)
	}
	return s.usageRepo.List(ctx, filter)
}

func (s *usageService) Summary(ctx context.Context, filter *models.UsageFilter) (*models.UsageSummary, error) {
	return s.usageRepo.Summarize(ctx, filter)
}
