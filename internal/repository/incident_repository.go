package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storewatch/backend/internal/models"
)

type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListByBranch(ctx context.Context, branchID string) ([]models.Incident, error)
	ListByBranches(ctx context.Context, branchIDs []string) ([]models.Incident, error)
	// UpdateStatus sets only the status and records the change. Unknown ids fail with
	// models.ErrNotFound.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, changedBy *uuid.UUID) (*models.Incident, error)
	ListStatusHistory(ctx context.Context, incidentID uuid.UUID) ([]models.IncidentStatusChange, error)
	CountUnresolvedByPriority(ctx context.Context) (map[models.Priority]int64, error)
	Count(ctx context.Context) (int64, error)
}

type incidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) IncidentRepository {
	return &incidentRepository{db: db}
}

func (r *incidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(incident).Error
	return translate(err, "incident "+incident.ID.String())
}

func (r *incidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	var incident models.Incident
	err := r.db.WithContext(ctx).
		Preload("Branch").
		First(&incident, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "incident "+id.String())
	}
	return &incident, nil
}

func (r *incidentRepository) ListByBranch(ctx context.Context, branchID string) ([]models.Incident, error) {
	return r.ListByBranches(ctx, []string{branchID})
}

// ListByBranches returns incidents in creation order; equal timestamps keep insertion order.
func (r *incidentRepository) ListByBranches(ctx context.Context, branchIDs []string) ([]models.Incident, error) {
	incidents := []models.Incident{}
	if len(branchIDs) == 0 {
		return incidents, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Branch").
		Where("branch_id IN ?", branchIDs).
		Order("created_at ASC, seq ASC").
		Find(&incidents).Error
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

func (r *incidentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, changedBy *uuid.UUID) (*models.Incident, error) {
	var updated models.Incident
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Incident
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		from := current.Status
		if err := tx.Model(&current).Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}

		change := &models.IncidentStatusChange{
			IncidentID:  id,
			FromStatus:  from,
			ToStatus:    status,
			ChangedByID: changedBy,
			ChangedAt:   now,
		}
		if err := tx.Create(change).Error; err != nil {
			return err
		}

		current.PreviousStatus = from
		current.Status = status
		current.UpdatedAt = now
		updated = current
		return nil
	})
	if err != nil {
		return nil, translate(err, "incident "+id.String())
	}
	return &updated, nil
}

func (r *incidentRepository) ListStatusHistory(ctx context.Context, incidentID uuid.UUID) ([]models.IncidentStatusChange, error) {
	changes := []models.IncidentStatusChange{}
	err := r.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("changed_at ASC").
		Find(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}

func (r *incidentRepository) CountUnresolvedByPriority(ctx context.Context) (map[models.Priority]int64, error) {
	var rows []struct {
		Priority models.Priority
		Count    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Incident{}).
		Select("priority, COUNT(*) AS count").
		Where("status <> ?", models.StatusResolved).
		Group("priority").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Priority]int64, len(models.AllPriorities))
	for _, p := range models.AllPriorities {
		counts[p] = 0
	}
	for _, row := range rows {
		counts[row.Priority] = row.Count
	}
	return counts, nil
}

func (r *incidentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Incident{}).Count(&total).Error
	return total, err
}
