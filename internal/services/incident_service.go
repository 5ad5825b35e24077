package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
	"github.com/storewatch/backend/internal/triage"
)

// presignConcurrency bounds the parallel presign requests made for one incident list.
const presignConcurrency = 8

// MediaURLSigner turns a stored object key into a temporary download URL.
type MediaURLSigner interface {
	GetFileURL(ctx context.Context, key string) (string, error)
}

type IncidentService interface {
	CreateIncident(ctx context.Context, req *models.IncidentCreateRequest, reporter *models.UserProfile) (*models.IncidentResponse, error)
	GetIncident(ctx context.Context, id uuid.UUID, viewer *models.UserProfile) (*models.IncidentResponse, error)
	ListIncidents(ctx context.Context, filter models.IncidentFilter, viewer *models.UserProfile) (*models.IncidentListResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *models.IncidentStatusRequest, actor *models.UserProfile) (*models.IncidentResponse, error)
	History(ctx context.Context, id uuid.UUID, viewer *models.UserProfile) ([]models.StatusChangeResponse, error)
	ExportIncidents(ctx context.Context, filter models.IncidentFilter, viewer *models.UserProfile) ([]byte, error)
	GetStats(ctx context.Context, viewer *models.UserProfile) (*models.IncidentStats, error)
}

type incidentService struct {
	incidentRepo  repository.IncidentRepository
	branchRepo    repository.BranchRepository
	assembler     *triage.Assembler
	statusManager StatusManager
	scope         *access.Resolver
	signer        MediaURLSigner
	exportLimit   int
	log           *zap.Logger
}

// NewIncidentService wires the incident use cases. signer may be nil when no object storage is
// configured, in which case photo URLs are only filled for http(s) references.
func NewIncidentService(
	incidentRepo repository.IncidentRepository,
	branchRepo repository.BranchRepository,
	assembler *triage.Assembler,
	statusManager StatusManager,
	scope *access.Resolver,
	signer MediaURLSigner,
	exportLimit int,
	log *zap.Logger,
) IncidentService {
	return &incidentService{
		incidentRepo:  incidentRepo,
		branchRepo:    branchRepo,
		assembler:     assembler,
		statusManager: statusManager,
		scope:         scope,
		signer:        signer,
		exportLimit:   exportLimit,
		log:           log,
	}
}

func (s *incidentService) CreateIncident(ctx context.Context, req *models.IncidentCreateRequest, reporter *models.UserProfile) (*models.IncidentResponse, error) {
	evidence, err := triage.Normalize(req.PhotoRef, req.AudioTranscript, req.Description)
	if err != nil {
		return nil, err
	}

	branchID := strings.TrimSpace(req.BranchID)
	if !s.scope.Permits(reporter, branchID) {
		return nil, fmt.Errorf("%w: branch %s is not assigned to you", models.ErrForbidden, branchID)
	}

	suggestion := &models.ClassificationResult{
		Title:             req.Title,
		Category:          req.Category,
		Priority:          models.Priority(req.Priority),
		PriorityReasoning: req.PriorityReasoning,
		Status:            models.Status(req.Status),
		Description:       req.Description,
	}
	incident, err := s.assembler.Assemble(ctx, branchID, suggestion, evidence)
	if err != nil {
		return nil, err
	}
	if reporter != nil {
		reporterID := reporter.ID
		incident.ReporterID = &reporterID
	}

	if err := s.incidentRepo.Create(ctx, incident); err != nil {
		return nil, err
	}

	s.log.Info("incident created",
		zap.String("incident_id", incident.ID.String()),
		zap.String("branch_id", incident.BranchID),
		zap.String("category", incident.Category),
		zap.String("priority", string(incident.Priority)),
	)

	if branch, err := s.branchRepo.FindByID(ctx, incident.BranchID); err == nil {
		incident.Branch = branch
	}
	resp := models.ToIncidentResponse(incident)
	resp.PhotoURL = s.photoURL(ctx, resp.PhotoRef)
	return &resp, nil
}

func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID, viewer *models.UserProfile) (*models.IncidentResponse, error) {
	incident, err := s.scopedIncident(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	resp := models.ToIncidentResponse(incident)
	resp.PhotoURL = s.photoURL(ctx, resp.PhotoRef)
	return &resp, nil
}

// ListIncidents returns the caller's visible branches and the incidents matching filter. A
// superadmin gets the branch list only until a specific branch is selected.
func (s *incidentService) ListIncidents(ctx context.Context, filter models.IncidentFilter, viewer *models.UserProfile) (*models.IncidentListResponse, error) {
	visible, err := s.visibleBranches(ctx, viewer)
	if err != nil {
		return nil, err
	}

	resp := &models.IncidentListResponse{
		Branches:  make([]models.BranchResponse, 0, len(visible)),
		Incidents: []models.IncidentResponse{},
	}
	for i := range visible {
		resp.Branches = append(resp.Branches, models.ToBranchResponse(&visible[i]))
	}

	if s.scope.RequiresBranchSelection(viewer, filter) {
		resp.SelectBranch = true
		return resp, nil
	}

	incidents, err := s.scopedIncidents(ctx, viewer, visible, filter, false)
	if err != nil {
		return nil, err
	}

	resp.Incidents = make([]models.IncidentResponse, len(incidents))
	for i := range incidents {
		resp.Incidents[i] = models.ToIncidentResponse(&incidents[i])
	}
	if err := s.presignPhotos(ctx, resp.Incidents); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *incidentService) UpdateStatus(ctx context.Context, id uuid.UUID, req *models.IncidentStatusRequest, actor *models.UserProfile) (*models.IncidentResponse, error) {
	updated, err := s.statusManager.Transition(ctx, id, req.Status, actor)
	if err != nil {
		return nil, err
	}
	if updated.Branch == nil {
		if branch, err := s.branchRepo.FindByID(ctx, updated.BranchID); err == nil {
			updated.Branch = branch
		}
	}
	resp := models.ToIncidentResponse(updated)
	resp.PhotoURL = s.photoURL(ctx, resp.PhotoRef)
	return &resp, nil
}

func (s *incidentService) History(ctx context.Context, id uuid.UUID, viewer *models.UserProfile) ([]models.StatusChangeResponse, error) {
	if _, err := s.scopedIncident(ctx, id, viewer); err != nil {
		return nil, err
	}

	changes, err := s.incidentRepo.ListStatusHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]models.StatusChangeResponse, len(changes))
	for i := range changes {
		resp[i] = models.ToStatusChangeResponse(&changes[i])
	}
	return resp, nil
}

// ExportIncidents writes the scoped incidents matching filter to an xlsx workbook. Unlike the
// list, an export does not wait for a branch selection.
func (s *incidentService) ExportIncidents(ctx context.Context, filter models.IncidentFilter, viewer *models.UserProfile) ([]byte, error) {
	visible, err := s.visibleBranches(ctx, viewer)
	if err != nil {
		return nil, err
	}

	incidents, err := s.scopedIncidents(ctx, viewer, visible, filter, true)
	if err != nil {
		return nil, err
	}
	if s.exportLimit > 0 && len(incidents) > s.exportLimit {
		incidents = incidents[:s.exportLimit]
	}

	return writeIncidentWorkbook(incidents)
}

func (s *incidentService) GetStats(ctx context.Context, viewer *models.UserProfile) (*models.IncidentStats, error) {
	stats := &models.IncidentStats{ByPriority: make(map[models.Priority]int64, len(models.AllPriorities))}
	for _, p := range models.AllPriorities {
		stats.ByPriority[p] = 0
	}

	if viewer.IsSuperAdmin() {
		counts, err := s.incidentRepo.CountUnresolvedByPriority(ctx)
		if err != nil {
			return nil, err
		}
		for p, n := range counts {
			stats.ByPriority[p] = n
			stats.Unresolved += n
		}
		return stats, nil
	}

	visible, err := s.visibleBranches(ctx, viewer)
	if err != nil {
		return nil, err
	}
	incidents, err := s.incidentRepo.ListByBranches(ctx, models.BranchIDs(visible))
	if err != nil {
		return nil, err
	}
	for _, inc := range incidents {
		if inc.Status == models.StatusResolved {
			continue
		}
		stats.ByPriority[inc.Priority]++
		stats.Unresolved++
	}
	return stats, nil
}

func (s *incidentService) visibleBranches(ctx context.Context, viewer *models.UserProfile) ([]models.Branch, error) {
	all, err := s.branchRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.scope.Resolve(viewer, all), nil
}

// scopedIncidents loads the incidents of the visible branches, narrowed to the filtered branch,
// and applies the remaining filters. Branch references are attached from the visible set.
func (s *incidentService) scopedIncidents(ctx context.Context, viewer *models.UserProfile, visible []models.Branch, filter models.IncidentFilter, export bool) ([]models.Incident, error) {
	ids := models.BranchIDs(visible)
	if branchID := strings.TrimSpace(filter.BranchID); branchID != "" && !strings.EqualFold(branchID, "all") {
		if !s.scope.CanSeeBranch(visible, branchID) {
			return []models.Incident{}, nil
		}
		ids = []string{branchID}
	}

	incidents, err := s.incidentRepo.ListByBranches(ctx, ids)
	if err != nil {
		return nil, err
	}

	if export {
		incidents = s.scope.Narrow(incidents, visible, filter)
	} else {
		incidents = s.scope.FilterIncidents(viewer, incidents, visible, filter)
	}

	byID := make(map[string]*models.Branch, len(visible))
	for i := range visible {
		byID[visible[i].ID] = &visible[i]
	}
	for i := range incidents {
		if b, ok := byID[incidents[i].BranchID]; ok {
			branch := *b
			incidents[i].Branch = &branch
		}
	}
	return incidents, nil
}

func (s *incidentService) scopedIncident(ctx context.Context, id uuid.UUID, viewer *models.UserProfile) (*models.Incident, error) {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.scope.Permits(viewer, incident.BranchID) {
		return nil, fmt.Errorf("%w: incident %s", models.ErrForbidden, id)
	}
	if incident.Branch == nil {
		if branch, err := s.branchRepo.FindByID(ctx, incident.BranchID); err == nil {
			incident.Branch = branch
		}
	}
	return incident, nil
}

// presignPhotos fills PhotoURL for every incident with a photo. Signing failures leave the URL
// empty; only cancellation of ctx fails the list.
func (s *incidentService) presignPhotos(ctx context.Context, incidents []models.IncidentResponse) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(presignConcurrency)

	for i := range incidents {
		if incidents[i].PhotoRef == "" {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			incidents[i].PhotoURL = s.photoURL(gctx, incidents[i].PhotoRef)
			return nil
		})
	}
	return g.Wait()
}

func (s *incidentService) photoURL(ctx context.Context, ref string) string {
	return mediaURL(ctx, s.signer, ref, s.log)
}
