package models

// EvidenceBundle is the canonical evidence for one incident report. At least one field is set.
type EvidenceBundle struct {
	PhotoRef        string `json:"photo_ref,omitempty"`
	AudioTranscript string `json:"audio_transcript,omitempty"`
	TextDescription string `json:"text_description,omitempty"`
}

func (e EvidenceBundle) HasPhoto() bool { return e.PhotoRef != "" }
func (e EvidenceBundle) HasAudio() bool { return e.AudioTranscript != "" }
func (e EvidenceBundle) HasText() bool { return e.TextDescription != "" }
func (e EvidenceBundle) IsEmpty() bool { return !e.HasPhoto() && !e.HasAudio() && !e.HasText() }

// ClassificationResult is the suggested structure of an incident derived from evidence.
type ClassificationResult struct {
	Title             string   `json:"title"`
	Category          string   `json:"category"`
	Priority          Priority `json:"priority"`
	PriorityReasoning string   `json:"priority_reasoning"`
	Status            Status   `json:"status"`
	Description       string   `json:"description"`
	Usage             *AIUsage `json:"usage,omitempty"`
}

type AnalyzeRequest struct {
	PhotoRef        string `json:"photo_ref" validate:"max=1000"`
	AudioRef        string `json:"audio_ref" validate:"max=1000"`
	AudioTranscript string `json:"audio_transcript"`
	TextDescription string `json:"text_description"`
}

type TranscribeRequest struct {
	AudioRef string `json:"audio_ref" validate:"required,max=1000"`
}

// AnalysisResponse is the suggestion returned to the report form. Fallback marks a manual-entry
// suggestion produced after the classifier failed.
type AnalysisResponse struct {
	Suggestion ClassificationResult `json:"suggestion"`
	Evidence   EvidenceBundle       `json:"evidence"`
	Fallback   bool                 `json:"fallback"`
	Reason     string               `json:"reason,omitempty"`
}

type TranscriptionResponse struct {
	Text  string   `json:"text"`
	Usage *AIUsage `json:"usage,omitempty"`
}

type MediaUploadResponse struct {
	Ref string `json:"ref"`
	URL string `json:"url,omitempty"`
}
