package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/storewatch/backend/internal/models"
)

// Impact keywords, checked in priority precedence: High before Medium.
var (
	highImpactTerms = []string{
		"cannot operate", "can t operate", "cannot open", "can t open", "unable to open",
		"store closed", "branch closed", "shut down", "shutdown", "power outage", "no power",
		"blackout", "flood", "fire", "gas leak", "robbery", "evacuat",
		"system down", "all registers", "no registers", "pos down",
	}
	mediumImpactTerms = []string{
		"not working", "broken", "out of order", "malfunction", "intermittent", "slow",
		"partial", "limited", "leak", "damaged", "one register", "short staffed",
		"offline", "faulty",
	}
)

// categoryTerms maps lower-cased category names to the vocabulary that suggests them. Terms match
// at a word start; a trailing space requires the whole word.
var categoryTerms = map[string][]string{
	"equipment":   {"fridge", "freezer", "oven", "machine", "register", "scanner", "scale", "chiller", "coffee", "equipment"},
	"maintenance": {"leak", "pipe", "door", "roof", "light", "ceiling", "air conditioning", "ac ", "hvac", "toilet", "plumbing", "maintenance"},
	"safety":      {"fire", "injury", "injured", "slip", "hazard", "spill", "smoke", "gas", "safety"},
	"security":    {"theft", "robbery", "break in", "broken into", "alarm", "camera", "cctv", "shoplift", "stolen", "security"},
	"cleanliness": {"dirty", "trash", "garbage", "pest", "rodent", "cockroach", "smell", "odor", "mess", "cleanliness"},
	"it":          {"network", "wifi", "wi fi", "internet", "pos ", "system", "computer", "printer", "software", "server"},
	"staffing":    {"staff", "employee", "shift", "absent", "no show", "understaffed", "short staffed"},
}

// RuleClassifier is a deterministic keyword classifier used when no inference endpoint is
// configured. It cannot read images, so photo-only evidence is not classified.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (c *RuleClassifier) Classify(ctx context.Context, evidence models.EvidenceBundle, settings models.IncidentSettings) (*models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(strings.Join(nonEmpty(evidence.TextDescription, evidence.AudioTranscript), ". "))
	if text == "" {
		return nil, fmt.Errorf("%w: photo-only evidence needs the inference endpoint", models.ErrClassification)
	}
	lower := " " + strings.Join(words(text), " ") + " "

	category, ok := matchCategory(lower, settings)
	if !ok {
		return nil, fmt.Errorf("%w: no configured category matches the evidence", models.ErrClassification)
	}

	priority, reasoning := impact(lower)
	priority = allowedPriority(priority, settings)

	return &models.ClassificationResult{
		Title:             title(category, text),
		Category:          category,
		Priority:          priority,
		PriorityReasoning: reasoning,
		Status:            models.StatusOpen,
		Description:       Describe(evidence),
	}, nil
}

func impact(lower string) (models.Priority, string) {
	if term, ok := firstMatch(lower, highImpactTerms); ok {
		return models.PriorityHigh, fmt.Sprintf("High: the evidence indicates the branch cannot operate (%q).", term)
	}
	if term, ok := firstMatch(lower, mediumImpactTerms); ok {
		return models.PriorityMedium, fmt.Sprintf("Medium: the branch operates with degraded or limited capability (%q).", term)
	}
	return models.PriorityLow, "Low: no material effect on core operations was reported."
}

// allowedPriority returns p when configured, otherwise the nearest lower allowed level, otherwise
// the nearest higher one.
func allowedPriority(p models.Priority, settings models.IncidentSettings) models.Priority {
	if settings.AllowsPriority(p) {
		return p
	}
	idx := 0
	for i, candidate := range models.AllPriorities {
		if candidate == p {
			idx = i
		}
	}
	for i := idx - 1; i >= 0; i-- {
		if settings.AllowsPriority(models.AllPriorities[i]) {
			return models.AllPriorities[i]
		}
	}
	for i := idx + 1; i < len(models.AllPriorities); i++ {
		if settings.AllowsPriority(models.AllPriorities[i]) {
			return models.AllPriorities[i]
		}
	}
	return p
}

// matchCategory scores every configured category and keeps the first best one. A category
// named "Other" catches evidence nothing else matched.
func matchCategory(lower string, settings models.IncidentSettings) (string, bool) {
	best, bestScore := "", 0
	other := ""
	for _, category := range settings.Categories {
		key := strings.Join(words(category), " ")
		if key == "" {
			continue
		}
		if key == "other" {
			other = category
			continue
		}
		score := 0
		if hasTerm(lower, key+" ") {
			score += 2
		}
		for _, term := range categoryTerms[key] {
			if hasTerm(lower, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = category, score
		}
	}
	if bestScore > 0 {
		return best, true
	}
	if other != "" {
		return other, true
	}
	return "", false
}

func firstMatch(lower string, terms []string) (string, bool) {
	for _, term := range terms {
		if hasTerm(lower, term) {
			return term, true
		}
	}
	return "", false
}

// hasTerm reports whether term starts at a word boundary of the space-padded text.
func hasTerm(padded, term string) bool {
	return strings.Contains(padded, " "+term)
}

func title(category, text string) string {
	summary := text
	if idx := strings.IndexAny(summary, ".!?\n"); idx > 0 {
		summary = summary[:idx]
	}
	summary = strings.TrimSpace(summary)
	const maxLen = 80
	if runes := []rune(summary); len(runes) > maxLen {
		summary = strings.TrimSpace(string(runes[:maxLen])) + "..."
	}
	return fmt.Sprintf("%s: %s", category, summary)
}

// Describe renders every non-empty evidence field as one labelled line.
func Describe(evidence models.EvidenceBundle) string {
	var lines []string
	if evidence.HasText() {
		lines = append(lines, "Reported description: "+evidence.TextDescription)
	}
	if evidence.HasAudio() {
		lines = append(lines, "Audio transcript: "+evidence.AudioTranscript)
	}
	if evidence.HasPhoto() {
		lines = append(lines, "Photo evidence attached: "+evidence.PhotoRef)
	}
	return strings.Join(lines, "\n")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
