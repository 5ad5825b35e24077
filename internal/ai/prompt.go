package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/storewatch/backend/internal/models"
)

const classifyInstruction = `You triage incident reports from retail store branches.
Return a single JSON object describing the incident.

Rules:
- "category" must be exactly one of the allowed categories. Do not invent new ones.
- "priority" is decided in this order:
  1. High: the evidence indicates the branch cannot operate at all.
  2. Medium: the branch operates with degraded or limited capability.
  3. Low: no material effect on core operations.
  It must be one of the allowed priorities.
- "priority_reasoning" is one short sentence naming which rule applied and why.
- "status" is "Open" unless the evidence says the issue is already being handled or resolved.
- "description" is a structured summary that covers every piece of evidence supplied (photo,
  audio transcript and written description). Do not drop any of them.
- "title" is a short headline of at most 10 words.`

const transcribeInstruction = `Transcribe the spoken content of this audio recording verbatim.
Return only the transcript text, without commentary. If nothing intelligible is said, return an empty response.`

type classificationPayload struct {
	Title             string `json:"title"`
	Category          string `json:"category"`
	Priority          string `json:"priority"`
	PriorityReasoning string `json:"priority_reasoning"`
	Status            string `json:"status"`
	Description       string `json:"description"`
}

// responseSchema constrains the model output to the current settings.
func responseSchema(settings models.IncidentSettings) *genai.Schema {
	priorities := make([]string, 0, len(models.AllPriorities))
	for _, p := range models.AllPriorities {
		if settings.AllowsPriority(p) {
			priorities = append(priorities, string(p))
		}
	}
	statuses := make([]string, len(models.AllStatuses))
	for i, s := range models.AllStatuses {
		statuses[i] = string(s)
	}
	categories := make([]string, len(settings.Categories))
	copy(categories, settings.Categories)

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":              {Type: genai.TypeString, Description: "Short headline of the incident"},
			"category":           {Type: genai.TypeString, Enum: categories},
			"priority":           {Type: genai.TypeString, Enum: priorities},
			"priority_reasoning": {Type: genai.TypeString, Description: "Which priority rule applied and why"},
			"status":             {Type: genai.TypeString, Enum: statuses},
			"description":        {Type: genai.TypeString, Description: "Summary covering all supplied evidence"},
		},
		Required:         []string{"title", "category", "priority", "priority_reasoning", "status", "description"},
		PropertyOrdering: []string{"title", "category", "priority", "priority_reasoning", "status", "description"},
	}
}

// evidencePrompt renders the textual evidence and settings for the user turn.
func evidencePrompt(evidence models.EvidenceBundle, settings models.IncidentSettings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Allowed categories: %s\n", strings.Join(settings.Categories, ", "))

	priorities := make([]string, 0, len(models.AllPriorities))
	for _, p := range models.AllPriorities {
		if settings.AllowsPriority(p) {
			priorities = append(priorities, string(p))
		}
	}
	fmt.Fprintf(&b, "Allowed priorities: %s\n\n", strings.Join(priorities, ", "))

	b.WriteString("Evidence:\n")
	if evidence.HasPhoto() {
		b.WriteString("- Photo: attached\n")
	}
	if evidence.HasAudio() {
		fmt.Fprintf(&b, "- Audio transcript: %s\n", evidence.AudioTranscript)
	}
	if evidence.HasText() {
		fmt.Fprintf(&b, "- Written description: %s\n", evidence.TextDescription)
	}
	return b.String()
}

func parseClassification(text string) (*models.ClassificationResult, error) {
	text = strings.TrimSpace(text)
	// Some models wrap JSON in a fenced block even in JSON mode.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var payload classificationPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", models.ErrClassification, err)
	}
	return &models.ClassificationResult{
		Title:             payload.Title,
		Category:          payload.Category,
		Priority:          models.Priority(payload.Priority),
		PriorityReasoning: payload.PriorityReasoning,
		Status:            models.Status(payload.Status),
		Description:       payload.Description,
	}, nil
}

// usageFrom maps the reported token counts. Counts the endpoint omitted stay nil.
func usageFrom(meta *genai.GenerateContentResponseUsageMetadata) *models.AIUsage {
	if meta == nil {
		return nil
	}
	usage := &models.AIUsage{
		InputTokens:  count(meta.PromptTokenCount),
		OutputTokens: count(meta.CandidatesTokenCount),
		TotalTokens:  count(meta.TotalTokenCount),
	}
	if usage.Empty() {
		return nil
	}
	return usage
}

func count(n int32) *int {
	if n <= 0 {
		return nil
	}
	v := int(n)
	return &v
}
