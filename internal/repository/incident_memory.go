package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storewatch/backend/internal/models"
)

// MemoryIncidentRepository keeps incidents in process memory. It backs tests and local runs
// without a database. A single mutex serializes every read-modify-write.
type MemoryIncidentRepository struct {
	mu        sync.Mutex
	incidents map[uuid.UUID]*models.Incident
	order     []uuid.UUID
	history   map[uuid.UUID][]models.IncidentStatusChange
	seq       int64
	now       func() time.Time
}

func NewMemoryIncidentRepository() *MemoryIncidentRepository {
	return &MemoryIncidentRepository{
		incidents: make(map[uuid.UUID]*models.Incident),
		history:   make(map[uuid.UUID][]models.IncidentStatusChange),
		now:       time.Now,
	}
}

func (r *MemoryIncidentRepository) Create(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	if _, exists := r.incidents[incident.ID]; exists {
		return fmt.Errorf("%w: incident %s", models.ErrDuplicateID, incident.ID)
	}
	r.seq++
	incident.Seq = r.seq
	stored := *incident
	stored.Branch = nil
	r.incidents[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	return nil
}

func (r *MemoryIncidentRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.incidents[id]
	if !ok {
		return nil, fmt.Errorf("%w: incident %s", models.ErrNotFound, id)
	}
	out := *stored
	return &out, nil
}

func (r *MemoryIncidentRepository) ListByBranch(ctx context.Context, branchID string) ([]models.Incident, error) {
	return r.ListByBranches(ctx, []string{branchID})
}

func (r *MemoryIncidentRepository) ListByBranches(_ context.Context, branchIDs []string) ([]models.Incident, error) {
	want := make(map[string]bool, len(branchIDs))
	for _, id := range branchIDs {
		want[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Incident{}
	for _, id := range r.order {
		if inc := r.incidents[id]; want[inc.BranchID] {
			out = append(out, *inc)
		}
	}
	return out, nil
}

func (r *MemoryIncidentRepository) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status, changedBy *uuid.UUID) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.incidents[id]
	if !ok {
		return nil, fmt.Errorf("%w: incident %s", models.ErrNotFound, id)
	}

	now := r.now().UTC()
	r.history[id] = append(r.history[id], models.IncidentStatusChange{
		ID:          uuid.New(),
		IncidentID:  id,
		FromStatus:  stored.Status,
		ToStatus:    status,
		ChangedByID: changedBy,
		ChangedAt:   now,
	})
	from := stored.Status
	stored.Status = status
	stored.UpdatedAt = now

	out := *stored
	out.PreviousStatus = from
	return &out, nil
}

func (r *MemoryIncidentRepository) ListStatusHistory(_ context.Context, incidentID uuid.UUID) ([]models.IncidentStatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.IncidentStatusChange, len(r.history[incidentID]))
	copy(out, r.history[incidentID])
	return out, nil
}

func (r *MemoryIncidentRepository) CountUnresolvedByPriority(_ context.Context) (map[models.Priority]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[models.Priority]int64, len(models.AllPriorities))
	for _, p := range models.AllPriorities {
		counts[p] = 0
	}
	for _, inc := range r.incidents {
		if inc.Status != models.StatusResolved {
			counts[inc.Priority]++
		}
	}
	return counts, nil
}

func (r *MemoryIncidentRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.incidents)), nil
}
