package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storewatch/backend/internal/models"
)

type fakeBranchRepo struct {
	branches []models.Branch
}

func (r *fakeBranchRepo) FindByID(ctx context.Context, id string) (*models.Branch, error) {
	for _, b := range r.branches {
		if b.ID == id {
			branch := b
			return &branch, nil
		}
	}
	return nil, fmt.Errorf("%w: branch %s", models.ErrNotFound, id)
}

func (r *fakeBranchRepo) List(ctx context.Context) ([]models.Branch, error) {
	out := make([]models.Branch, len(r.branches))
	copy(out, r.branches)
	return out, nil
}

func (r *fakeBranchRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Branch, error) {
	var out []models.Branch
	for _, b := range r.branches {
		for _, id := range ids {
			if b.ID == id {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

type fakeSettingsRepo struct {
	settings models.IncidentSettings
}

func (r *fakeSettingsRepo) Get(ctx context.Context) (models.IncidentSettings, error) {
	return r.settings, nil
}

func (r *fakeSettingsRepo) Save(ctx context.Context, settings models.IncidentSettings) (models.IncidentSettings, error) {
	normalized, err := settings.Normalize()
	if err != nil {
		return models.IncidentSettings{}, err
	}
	r.settings = normalized
	return normalized, nil
}

type fakeUsageRepo struct {
	mu      sync.Mutex
	records []models.AIUsageRecord
}

func (r *fakeUsageRepo) Create(ctx context.Context, record *models.AIUsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeUsageRepo) List(ctx context.Context, filter *models.UsageFilter) ([]models.AIUsageRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AIUsageRecord
	for _, rec := range r.records {
		if filter.Operation == "" || string(rec.Operation) == filter.Operation {
			out = append(out, rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUsageRepo) Summarize(ctx context.Context, filter *models.UsageFilter) (*models.UsageSummary, error) {
	records, _, _ := r.List(ctx, filter)
	summary := &models.UsageSummary{Calls: int64(len(records))}
	for _, rec := range records {
		if rec.TotalTokens != nil {
			summary.TotalTokens += int64(*rec.TotalTokens)
		}
	}
	return summary, nil
}

// fakeUserRepo mirrors the bootstrap rule of the database repository under a mutex.
type fakeUserRepo struct {
	mu       sync.Mutex
	users    []*models.UserProfile
	branches *fakeBranchRepo
}

func (r *fakeUserRepo) CreateProfile(ctx context.Context, user *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: profile %s", models.ErrDuplicateID, user.Email)
		}
	}
	if len(r.users) == 0 {
		user.Role = models.RoleSuperAdmin
	} else {
		user.Role = models.RoleUser
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	stored := *user
	r.users = append(r.users, &stored)
	return nil
}

func (r *fakeUserRepo) find(match func(*models.UserProfile) bool) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			out := *u
			out.Branches = append([]models.Branch(nil), u.Branches...)
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	return r.find(func(u *models.UserProfile) bool { return u.ID == id })
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(u *models.UserProfile) bool { return u.Email == email })
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) List(ctx context.Context, page, limit int) ([]models.UserProfile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.UserProfile, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) AssignBranches(ctx context.Context, userID uuid.UUID, branchIDs []string) (*models.UserProfile, error) {
	branches, _ := r.branches.ListByIDs(ctx, branchIDs)
	if len(branches) != len(branchIDs) {
		return nil, fmt.Errorf("%w: unknown branches", models.ErrValidation)
	}

	r.mu.Lock()
	for _, u := range r.users {
		if u.ID == userID {
			u.Branches = branches
		}
	}
	r.mu.Unlock()
	return r.FindByID(ctx, userID)
}

type stubClassifier struct {
	result *models.ClassificationResult
	err    error
	calls  int
}

func (c *stubClassifier) Classify(ctx context.Context, evidence models.EvidenceBundle, settings models.IncidentSettings) (*models.ClassificationResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := *c.result
	return &out, nil
}

type stubTranscriber struct {
	text  string
	usage *models.AIUsage
	err   error
	refs  []string
}

func (t *stubTranscriber) Transcribe(ctx context.Context, audioRef string) (string, *models.AIUsage, error) {
	t.refs = append(t.refs, audioRef)
	return t.text, t.usage, t.err
}

type fakeEvidenceStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeEvidenceStore) UploadEvidence(ctx context.Context, r io.Reader, size int64, filename, contentType, folder string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	key := folder + "/" + filename
	s.objects[key] = data
	return key, nil
}

func (s *fakeEvidenceStore) GetFileURL(ctx context.Context, key string) (string, error) {
	return "https://media.test/" + key + "?signed=1", nil
}

func intPtr(v int) *int { return &v }
