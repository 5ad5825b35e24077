// Package triage turns raw incident evidence into validated incident records: evidence
// normalization, priority classification and incident assembly.
package triage

import (
	"strings"

	"github.com/storewatch/backend/internal/models"
)

// Normalize builds an evidence bundle from the optional report inputs. Blank inputs count as
// absent; when all three are absent it fails with models.ErrInsufficientEvidence.
func Normalize(photoRef, audioTranscript, textDescription string) (models.EvidenceBundle, error) {
	bundle := models.EvidenceBundle{
		PhotoRef:        strings.TrimSpace(photoRef),
		AudioTranscript: strings.TrimSpace(audioTranscript),
		TextDescription: strings.TrimSpace(textDescription),
	}
	if bundle.IsEmpty() {
		return models.EvidenceBundle{}, models.ErrInsufficientEvidence
	}
	return bundle, nil
}
