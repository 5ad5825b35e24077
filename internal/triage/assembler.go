package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storewatch/backend/internal/models"
)

// BranchLookup resolves branch reference data.
type BranchLookup interface {
	FindByID(ctx context.Context, id string) (*models.Branch, error)
}

// SettingsProvider returns the current incident settings.
type SettingsProvider interface {
	Get(ctx context.Context) (models.IncidentSettings, error)
}

// Assembler builds incident records from classifier output. It does not persist anything.
type Assembler struct {
	branches BranchLookup
	settings SettingsProvider
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

type AssemblerOption func(*Assembler)

// WithClock replaces the wall clock used for creation timestamps.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(branches BranchLookup, settings SettingsProvider, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		branches: branches,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble validates the classification against the branch catalog and current settings and
// returns a new incident with a fresh id. Any violation is reported as models.ErrValidation.
func (a *Assembler) Assemble(ctx context.Context, branchID string, result *models.ClassificationResult, evidence models.EvidenceBundle) (*models.Incident, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: missing classification", models.ErrValidation)
	}

	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return nil, fmt.Errorf("%w: branch is required", models.ErrValidation)
	}
	branch, err := a.branches.FindByID(ctx, branchID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: branch %q does not exist", models.ErrValidation, branchID)
		}
		return nil, err
	}

	settings, err := a.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incident settings: %w", err)
	}

	title := strings.TrimSpace(result.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}

	category, ok := settings.MatchCategory(result.Category)
	if !ok {
		return nil, fmt.Errorf("%w: category %q is not configured", models.ErrValidation, result.Category)
	}

	priority, ok := models.ParsePriority(string(result.Priority))
	if !ok {
		return nil, fmt.Errorf("%w: priority must be one of Low, Medium, High", models.ErrValidation)
	}

	status := models.StatusOpen
	if result.Status != "" {
		if status, ok = models.ParseStatus(string(result.Status)); !ok {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, result.Status)
		}
	}

	description := strings.TrimSpace(result.Description)
	if description == "" {
		description = Describe(evidence)
	}

	createdAt := a.timestamp()
	return &models.Incident{
		ID:                uuid.New(),
		BranchID:          branch.ID,
		Title:             title,
		Category:          category,
		Priority:          priority,
		PriorityReasoning: strings.TrimSpace(result.PriorityReasoning),
		Status:            status,
		Description:       description,
		PhotoRef:          evidence.PhotoRef,
		AudioTranscript:   evidence.AudioTranscript,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}, nil
}

// timestamp never returns a value earlier than one it already returned.
func (a *Assembler) timestamp() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now().UTC()
	if now.Before(a.last) {
		now = a.last
	}
	a.last = now
	return now
}
