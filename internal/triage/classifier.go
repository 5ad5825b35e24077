package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/storewatch/backend/internal/models"
)

// Classifier suggests the structure of an incident from its evidence.
type Classifier interface {
	Classify(ctx context.Context, evidence models.EvidenceBundle, settings models.IncidentSettings) (*models.ClassificationResult, error)
}

// ValidatingClassifier enforces the membership constraints on another classifier's output:
// the category must be configured, the priority must be an allowed level, and the status
// defaults to Open. Anything else is reported as models.ErrClassification.
type ValidatingClassifier struct {
	next Classifier
}

func NewValidatingClassifier(next Classifier) *ValidatingClassifier {
	return &ValidatingClassifier{next: next}
}

func (v *ValidatingClassifier) Classify(ctx context.Context, evidence models.EvidenceBundle, settings models.IncidentSettings) (*models.ClassificationResult, error) {
	if evidence.IsEmpty() {
		return nil, models.ErrInsufficientEvidence
	}
	if len(settings.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories configured", models.ErrClassification)
	}

	result, err := v.next.Classify(ctx, evidence, settings)
	if err != nil {
		if errors.Is(err, models.ErrClassification) || errors.Is(err, models.ErrRemoteService) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrClassification, err)
	}

	validated, err := Validate(result, evidence, settings)
	if err != nil {
		if result != nil {
			err = models.WithUsage(err, result.Usage)
		}
		return nil, err
	}
	return validated, nil
}

// Validate checks a raw classification against the settings and returns a normalized copy.
func Validate(result *models.ClassificationResult, evidence models.EvidenceBundle, settings models.IncidentSettings) (*models.ClassificationResult, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: empty result", models.ErrClassification)
	}

	out := *result
	out.Title = strings.TrimSpace(out.Title)
	if out.Title == "" {
		return nil, fmt.Errorf("%w: missing title", models.ErrClassification)
	}

	category, ok := settings.MatchCategory(out.Category)
	if !ok {
		return nil, fmt.Errorf("%w: category %q is not configured", models.ErrClassification, result.Category)
	}
	out.Category = category

	priority, ok := models.ParsePriority(string(out.Priority))
	if !ok || !settings.AllowsPriority(priority) {
		return nil, fmt.Errorf("%w: priority %q is not allowed", models.ErrClassification, result.Priority)
	}
	out.Priority = priority

	if out.Status == "" {
		out.Status = models.StatusOpen
	} else if status, ok := models.ParseStatus(string(out.Status)); ok {
		out.Status = status
	} else {
		return nil, fmt.Errorf("%w: status %q is not a lifecycle state", models.ErrClassification, result.Status)
	}

	out.PriorityReasoning = strings.TrimSpace(out.PriorityReasoning)
	out.Description = coverEvidence(strings.TrimSpace(out.Description), evidence)
	if out.Description == "" {
		return nil, fmt.Errorf("%w: missing description", models.ErrClassification)
	}

	return &out, nil
}

// coverEvidence appends any evidence the description does not reference at all.
func coverEvidence(description string, evidence models.EvidenceBundle) string {
	var missing []string
	if evidence.HasText() && !overlaps(description, evidence.TextDescription) {
		missing = append(missing, "Reported description: "+evidence.TextDescription)
	}
	if evidence.HasAudio() && !overlaps(description, evidence.AudioTranscript) {
		missing = append(missing, "Audio transcript: "+evidence.AudioTranscript)
	}
	if evidence.HasPhoto() && !strings.Contains(description, evidence.PhotoRef) {
		missing = append(missing, "Photo evidence attached: "+evidence.PhotoRef)
	}
	if len(missing) == 0 {
		return description
	}
	if description == "" {
		return strings.Join(missing, "\n")
	}
	return description + "\n\n" + strings.Join(missing, "\n")
}

// overlaps reports whether any significant word of source appears in text.
func overlaps(text, source string) bool {
	if text == "" {
		return false
	}
	have := make(map[string]bool)
	for _, w := range words(text) {
		have[w] = true
	}
	significant := 0
	for _, w := range words(source) {
		if len([]rune(w)) < 3 {
			continue
		}
		significant++
		if have[w] {
			return true
		}
	}
	// Sources made only of short words are matched as a whole.
	return significant == 0 && strings.Contains(strings.ToLower(text), strings.ToLower(strings.TrimSpace(source)))
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
