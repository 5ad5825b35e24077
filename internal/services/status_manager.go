package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
)

// StatusManager owns the incident lifecycle. Every status is reachable from every other status
// and none is terminal.
type StatusManager interface {
	Transition(ctx context.Context, id uuid.UUID, status string, actor *models.UserProfile) (*models.Incident, error)
}

type statusManager struct {
	incidentRepo repository.IncidentRepository
	scope        *access.Resolver
	log          *zap.Logger
}

func NewStatusManager(incidentRepo repository.IncidentRepository, scope *access.Resolver, log *zap.Logger) StatusManager {
	return &statusManager{
		incidentRepo: incidentRepo,
		scope:        scope,
		log:          log,
	}
}

func (m *statusManager) Transition(ctx context.Context, id uuid.UUID, status string, actor *models.UserProfile) (*models.Incident, error) {
	next, ok := models.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: status must be one of Open, In Progress, Resolved", models.ErrValidation)
	}

	current, err := m.incidentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.scope.Permits(actor, current.BranchID) {
		return nil, fmt.Errorf("%w: incident %s", models.ErrForbidden, id)
	}

	var changedBy *uuid.UUID
	if actor != nil {
		actorID := actor.ID
		changedBy = &actorID
	}

	updated, err := m.incidentRepo.UpdateStatus(ctx, id, next, changedBy)
	if err != nil {
		return nil, err
	}

	m.log.Info("incident status changed",
		zap.String("incident_id", id.String()),
		zap.String("from", string(updated.PreviousStatus)),
		zap.String("to", string(next)),
		zap.Stringp("actor", actorString(changedBy)),
	)
	return updated, nil
}

func actorString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
