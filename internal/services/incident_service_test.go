package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
	"github.com/storewatch/backend/internal/triage"
)

type incidentFixture struct {
	branches  *fakeBranchRepo
	settings  *fakeSettingsRepo
	incidents *repository.MemoryIncidentRepository
	service   IncidentService
	admin     *models.UserProfile
	staff     *models.UserProfile
}

func newIncidentFixture(t *testing.T) *incidentFixture {
	t.Helper()

	branches := &fakeBranchRepo{branches: []models.Branch{
		{ID: "b1", Name: "Downtown", Region: "Central", Brand: "FreshMart"},
		{ID: "b2", Name: "Harbor", Region: "Coast", Brand: "FreshMart"},
		{ID: "b3", Name: "Northside", Region: "North", Brand: "QuickStop"},
	}}
	settings := &fakeSettingsRepo{settings: models.DefaultIncidentSettings()}
	incidents := repository.NewMemoryIncidentRepository()

	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	assembler := triage.NewAssembler(branches, settings, triage.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	log := zap.NewNop()
	scope := access.NewResolver()
	service := NewIncidentService(incidents, branches, assembler, NewStatusManager(incidents, scope, log), scope, &fakeEvidenceStore{}, 0, log)

	return &incidentFixture{
		branches:  branches,
		settings:  settings,
		incidents: incidents,
		service:   service,
		admin:     &models.UserProfile{ID: uuid.New(), Role: models.RoleSuperAdmin},
		staff: &models.UserProfile{ID: uuid.New(), Role: models.RoleUser, Branches: []models.Branch{
			{ID: "b1"},
		}},
	}
}

func (f *incidentFixture) create(t *testing.T, branchID, category string, priority models.Priority) *models.IncidentResponse {
	t.Helper()
	resp, err := f.service.CreateIncident(context.Background(), &models.IncidentCreateRequest{
		BranchID:    branchID,
		Title:       category + " issue",
		Category:    category,
		Priority:    string(priority),
		Description: "reported " + category,
		PhotoRef:    "photos/2024/06/01/x.jpg",
	}, f.admin)
	require.NoError(t, err)
	return resp
}

func TestIncidentService_CreateIncident(t *testing.T) {
	f := newIncidentFixture(t)

	resp, err := f.service.CreateIncident(context.Background(), &models.IncidentCreateRequest{
		BranchID:    "b1",
		Title:       "Freezer warm",
		Category:    "equipment",
		Priority:    "high",
		Description: "Freezer at 10C",
		PhotoRef:    "photos/f.jpg",
	}, f.staff)
	require.NoError(t, err)

	assert.Equal(t, "Equipment", resp.Category)
	assert.Equal(t, models.PriorityHigh, resp.Priority)
	assert.Equal(t, models.StatusOpen, resp.Status)
	require.NotNil(t, resp.ReporterID)
	assert.Equal(t, f.staff.ID, *resp.ReporterID)
	require.NotNil(t, resp.Branch)
	assert.Equal(t, "Downtown", resp.Branch.Name)
	assert.Contains(t, resp.PhotoURL, "photos/f.jpg")
}

func TestIncidentService_CreateIncident_Errors(t *testing.T) {
	f := newIncidentFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateIncident(ctx, &models.IncidentCreateRequest{BranchID: "b1", Title: "x", Category: "IT", Priority: "Low"}, f.staff)
	assert.ErrorIs(t, err, models.ErrInsufficientEvidence)

	_, err = f.service.CreateIncident(ctx, &models.IncidentCreateRequest{BranchID: "b2", Title: "Door", Category: "Security", Priority: "Low", Description: "door"}, f.staff)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.service.CreateIncident(ctx, &models.IncidentCreateRequest{BranchID: "b1", Title: "Door", Category: "Plumbing", Priority: "Low", Description: "door"}, f.staff)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.service.CreateIncident(ctx, &models.IncidentCreateRequest{BranchID: "zz", Title: "Door", Category: "Security", Priority: "Low", Description: "door"}, f.admin)
	assert.ErrorIs(t, err, models.ErrValidation)

	total, err := f.incidents.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIncidentService_ListIncidents_UserScope(t *testing.T) {
	f := newIncidentFixture(t)
	first := f.create(t, "b1", "Safety", models.PriorityHigh)
	f.create(t, "b2", "Safety", models.PriorityHigh)
	second := f.create(t, "b1", "IT", models.PriorityLow)

	resp, err := f.service.ListIncidents(context.Background(), models.IncidentFilter{}, f.staff)
	require.NoError(t, err)

	assert.False(t, resp.SelectBranch)
	require.Len(t, resp.Branches, 1)
	assert.Equal(t, "b1", resp.Branches[0].ID)
	require.Len(t, resp.Incidents, 2)
	assert.Equal(t, second.ID, resp.Incidents[0].ID)
	assert.Equal(t, first.ID, resp.Incidents[1].ID)
	for _, inc := range resp.Incidents {
		assert.Equal(t, "b1", inc.BranchID)
		assert.NotEmpty(t, inc.PhotoURL)
		require.NotNil(t, inc.Branch)
	}

	filtered, err := f.service.ListIncidents(context.Background(), models.IncidentFilter{Category: "it"}, f.staff)
	require.NoError(t, err)
	require.Len(t, filtered.Incidents, 1)
	assert.Equal(t, second.ID, filtered.Incidents[0].ID)

	other, err := f.service.ListIncidents(context.Background(), models.IncidentFilter{BranchID: "b2"}, f.staff)
	require.NoError(t, err)
	assert.Empty(t, other.Incidents)
}

func TestIncidentService_ListIncidents_SuperAdminSelectsBranch(t *testing.T) {
	f := newIncidentFixture(t)
	f.create(t, "b1", "Safety", models.PriorityHigh)
	harbor := f.create(t, "b2", "Cleanliness", models.PriorityLow)

	resp, err := f.service.ListIncidents(context.Background(), models.IncidentFilter{BranchID: "all"}, f.admin)
	require.NoError(t, err)
	assert.True(t, resp.SelectBranch)
	assert.Len(t, resp.Branches, 3)
	assert.Empty(t, resp.Incidents)

	resp, err = f.service.ListIncidents(context.Background(), models.IncidentFilter{BranchID: "b2"}, f.admin)
	require.NoError(t, err)
	assert.False(t, resp.SelectBranch)
	require.Len(t, resp.Incidents, 1)
	assert.Equal(t, harbor.ID, resp.Incidents[0].ID)
}

func TestIncidentService_GetIncident_Scope(t *testing.T) {
	f := newIncidentFixture(t)
	harbor := f.create(t, "b2", "Safety", models.PriorityHigh)
	ctx := context.Background()

	_, err := f.service.GetIncident(ctx, harbor.ID, f.staff)
	assert.ErrorIs(t, err, models.ErrForbidden)

	got, err := f.service.GetIncident(ctx, harbor.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "Harbor", got.Branch.Name)

	_, err = f.service.GetIncident(ctx, uuid.New(), f.admin)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestIncidentService_ReopenResolved(t *testing.T) {
	f := newIncidentFixture(t)
	inc := f.create(t, "b1", "Maintenance", models.PriorityMedium)
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, inc.ID, &models.IncidentStatusRequest{Status: "Resolved"}, f.staff)
	require.NoError(t, err)
	updated, err := f.service.UpdateStatus(ctx, inc.ID, &models.IncidentStatusRequest{Status: "Open"}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, updated.Status)

	history, err := f.service.History(ctx, inc.ID, f.staff)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusResolved, history[0].ToStatus)
	assert.Equal(t, models.StatusResolved, history[1].FromStatus)
	require.NotNil(t, history[1].ChangedByID)
	assert.Equal(t, f.staff.ID, *history[1].ChangedByID)
}

func TestIncidentService_UpdateStatus_Errors(t *testing.T) {
	f := newIncidentFixture(t)
	harbor := f.create(t, "b2", "Safety", models.PriorityHigh)
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, harbor.ID, &models.IncidentStatusRequest{Status: "Closed"}, f.admin)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.service.UpdateStatus(ctx, harbor.ID, &models.IncidentStatusRequest{Status: "Resolved"}, f.staff)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.service.UpdateStatus(ctx, uuid.New(), &models.IncidentStatusRequest{Status: "Resolved"}, f.admin)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := f.service.GetIncident(ctx, harbor.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, got.Status)

	history, err := f.service.History(ctx, harbor.ID, f.admin)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestIncidentService_GetStats(t *testing.T) {
	f := newIncidentFixture(t)
	ctx := context.Background()
	f.create(t, "b1", "Safety", models.PriorityHigh)
	f.create(t, "b2", "Safety", models.PriorityHigh)
	resolved := f.create(t, "b1", "IT", models.PriorityLow)
	_, err := f.service.UpdateStatus(ctx, resolved.ID, &models.IncidentStatusRequest{Status: "resolved"}, f.admin)
	require.NoError(t, err)

	all, err := f.service.GetStats(ctx, f.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Unresolved)
	assert.EqualValues(t, 2, all.ByPriority[models.PriorityHigh])
	assert.EqualValues(t, 0, all.ByPriority[models.PriorityLow])

	mine, err := f.service.GetStats(ctx, f.staff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mine.Unresolved)
}

func TestIncidentService_ExportIncidents(t *testing.T) {
	f := newIncidentFixture(t)
	f.create(t, "b1", "Safety", models.PriorityHigh)
	f.create(t, "b2", "Cleanliness", models.PriorityLow)
	f.create(t, "b3", "IT", models.PriorityMedium)

	data, err := f.service.ExportIncidents(context.Background(), models.IncidentFilter{Brand: "FreshMart"}, f.admin)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(incidentSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, incidentExportHeader[0], rows[0][0])
	assert.Equal(t, "b2", rows[1][1])
	assert.Equal(t, "b1", rows[2][1])
}

// staleReads serves GetByID from a snapshot taken before a concurrent writer moved the incident on.
type staleReads struct {
	repository.IncidentRepository
	snapshot *models.Incident
}

func (s staleReads) GetByID(context.Context, uuid.UUID) (*models.Incident, error) {
	out := *s.snapshot
	return &out, nil
}

func TestStatusManager_LogsStatusReplacedUnderLock(t *testing.T) {
	ctx := context.Background()
	incidents := repository.NewMemoryIncidentRepository()
	inc := &models.Incident{ID: uuid.New(), BranchID: "b1", Title: "Spill", Status: models.StatusOpen, CreatedAt: time.Now()}
	require.NoError(t, incidents.Create(ctx, inc))
	snapshot := *inc

	_, err := incidents.UpdateStatus(ctx, inc.ID, models.StatusResolved, nil)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	manager := NewStatusManager(staleReads{IncidentRepository: incidents, snapshot: &snapshot}, access.NewResolver(), zap.New(core))
	admin := &models.UserProfile{ID: uuid.New(), Role: models.RoleSuperAdmin}

	updated, err := manager.Transition(ctx, inc.ID, "In Progress", admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	entries := logs.FilterMessage("incident status changed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(models.StatusResolved), fields["from"])
	assert.Equal(t, string(models.StatusInProgress), fields["to"])
}
