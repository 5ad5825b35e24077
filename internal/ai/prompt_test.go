package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/storewatch/backend/internal/models"
)

func TestResponseSchema_UsesSettings(t *testing.T) {
	settings := models.IncidentSettings{
		Categories: []string{"Equipment", "Safety"},
		Priorities: []models.Priority{models.PriorityHigh, models.PriorityLow},
	}
	schema := responseSchema(settings)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"Equipment", "Safety"}, schema.Properties["category"].Enum)
	assert.Equal(t, []string{"Low", "High"}, schema.Properties["priority"].Enum)
	assert.Equal(t, []string{"Open", "In Progress", "Resolved"}, schema.Properties["status"].Enum)
	assert.ElementsMatch(t, schema.Required, schema.PropertyOrdering)
}

func TestEvidencePrompt(t *testing.T) {
	prompt := evidencePrompt(models.EvidenceBundle{
		PhotoRef:        "photos/a.jpg",
		AudioTranscript: "freezer alarm going off",
		TextDescription: "freezer at 10 degrees",
	}, models.DefaultIncidentSettings())

	assert.Contains(t, prompt, "Allowed categories: Equipment, Maintenance")
	assert.Contains(t, prompt, "Allowed priorities: Low, Medium, High")
	assert.Contains(t, prompt, "Photo: attached")
	assert.Contains(t, prompt, "freezer alarm going off")
	assert.Contains(t, prompt, "freezer at 10 degrees")
	assert.NotContains(t, prompt, "photos/a.jpg")
}

func TestParseClassification(t *testing.T) {
	raw := "```json\n" + `{"title":"Freezer failure","category":"Equipment","priority":"High","priority_reasoning":"cannot sell frozen goods","status":"Open","description":"Freezer is warm."}` + "\n```"
	result, err := parseClassification(raw)
	require.NoError(t, err)
	assert.Equal(t, "Freezer failure", result.Title)
	assert.Equal(t, models.PriorityHigh, result.Priority)
	assert.Equal(t, models.StatusOpen, result.Status)

	_, err = parseClassification("I think this is about a freezer")
	assert.ErrorIs(t, err, models.ErrClassification)
}

func TestUsageFrom(t *testing.T) {
	assert.Nil(t, usageFrom(nil))
	assert.Nil(t, usageFrom(&genai.GenerateContentResponseUsageMetadata{}))

	usage := usageFrom(&genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 120, TotalTokenCount: 150})
	require.NotNil(t, usage)
	assert.Equal(t, 120, *usage.InputTokens)
	assert.Nil(t, usage.OutputTokens)
	assert.Equal(t, 150, *usage.TotalTokens)
}
