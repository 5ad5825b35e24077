package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/triage"
)

func newAnalysisService(classifier triage.Classifier, transcriber Transcriber, usage *fakeUsageRepo) AnalysisService {
	log := zap.NewNop()
	settings := &fakeSettingsRepo{settings: models.DefaultIncidentSettings()}
	return NewAnalysisService(classifier, transcriber, settings, NewUsageService(usage, log),
		AnalysisModels{Classify: "gemini-test", Transcribe: "gemini-audio-test"}, log)
}

func TestAnalysisService_RuleClassifierLeak(t *testing.T) {
	usage := &fakeUsageRepo{}
	svc := newAnalysisService(triage.NewRuleClassifier(), nil, usage)

	resp, err := svc.Analyze(context.Background(), &models.AnalyzeRequest{TextDescription: "  leak  "}, nil)
	require.NoError(t, err)

	assert.False(t, resp.Fallback)
	assert.Equal(t, "leak", resp.Evidence.TextDescription)
	assert.Equal(t, "Maintenance", resp.Suggestion.Category)
	assert.Equal(t, models.PriorityMedium, resp.Suggestion.Priority)
	assert.Equal(t, models.StatusOpen, resp.Suggestion.Status)
	assert.Contains(t, strings.ToLower(resp.Suggestion.Description), "leak")
	assert.Empty(t, usage.records, "local classification is not accounted")
}

func TestAnalysisService_InsufficientEvidence(t *testing.T) {
	classifier := &stubClassifier{}
	svc := newAnalysisService(classifier, nil, &fakeUsageRepo{})

	_, err := svc.Analyze(context.Background(), &models.AnalyzeRequest{TextDescription: "   "}, nil)
	assert.ErrorIs(t, err, models.ErrInsufficientEvidence)
	assert.Zero(t, classifier.calls)
}

func TestAnalysisService_Fallback(t *testing.T) {
	for _, cause := range []error{models.ErrRemoteService, models.ErrClassification} {
		t.Run(cause.Error(), func(t *testing.T) {
			svc := newAnalysisService(&stubClassifier{err: cause}, nil, &fakeUsageRepo{})

			resp, err := svc.Analyze(context.Background(), &models.AnalyzeRequest{
				PhotoRef:        "photos/p.jpg",
				TextDescription: "shelf collapsed",
			}, nil)
			require.NoError(t, err)

			assert.True(t, resp.Fallback)
			assert.NotEmpty(t, resp.Reason)
			assert.Equal(t, models.StatusOpen, resp.Suggestion.Status)
			assert.Empty(t, resp.Suggestion.Category)
			assert.Contains(t, resp.Suggestion.Description, "shelf collapsed")
			assert.Equal(t, "photos/p.jpg", resp.Evidence.PhotoRef)
		})
	}
}

func TestAnalysisService_RejectsOutOfSettingsSuggestion(t *testing.T) {
	svc := newAnalysisService(&stubClassifier{result: &models.ClassificationResult{
		Title:    "Roof",
		Category: "Roofing",
		Priority: models.PriorityHigh,
	}}, nil, &fakeUsageRepo{})

	resp, err := svc.Analyze(context.Background(), &models.AnalyzeRequest{TextDescription: "roof is leaking"}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
}

func TestAnalysisService_RecordsUsageOfRejectedClassification(t *testing.T) {
	usage := &fakeUsageRepo{}
	svc := newAnalysisService(&stubClassifier{result: &models.ClassificationResult{
		Title:       "Roof",
		Category:    "Roofing",
		Priority:    models.PriorityHigh,
		Description: "roof is leaking",
		Usage:       &models.AIUsage{InputTokens: intPtr(120), OutputTokens: intPtr(120), TotalTokens: intPtr(120)},
	}}, nil, usage)
	caller := &models.UserProfile{ID: uuid.New(), Role: models.RoleUser}

	resp, err := svc.Analyze(context.Background(), &models.AnalyzeRequest{TextDescription: "roof is leaking"}, caller)
	require.NoError(t, err)
	assert.True(t, resp.Fallback)

	require.Len(t, usage.records, 1)
	assert.Equal(t, models.UsageClassify, usage.records[0].Operation)
	assert.Equal(t, "gemini-test", usage.records[0].Model)
	assert.Equal(t, 120, *usage.records[0].TotalTokens)
	assert.Equal(t, caller.ID, *usage.records[0].UserID)
}

func TestAnalysisService_TranscribesAudioAndRecordsUsage(t *testing.T) {
	usage := &fakeUsageRepo{}
	transcriber := &stubTranscriber{
		text:  "the card reader at till two is not working",
		usage: &models.AIUsage{InputTokens: intPtr(120), TotalTokens: intPtr(140)},
	}
	classifier := &stubClassifier{result: &models.ClassificationResult{
		Title:             "Card reader down",
		Category:          "it",
		Priority:          models.PriorityMedium,
		PriorityReasoning: "payments degraded",
		Description:       "The card reader at till two is not working",
		Usage:             &models.AIUsage{},
	}}
	svc := newAnalysisService(classifier, transcriber, usage)
	caller := &models.UserProfile{ID: uuid.New(), Role: models.RoleUser}

	resp, err := svc.Analyze(context.Background(), &models.AnalyzeRequest{AudioRef: "audio/a.webm"}, caller)
	require.NoError(t, err)

	assert.Equal(t, []string{"audio/a.webm"}, transcriber.refs)
	assert.Equal(t, transcriber.text, resp.Evidence.AudioTranscript)
	assert.Equal(t, "IT", resp.Suggestion.Category)

	require.Len(t, usage.records, 2)
	transcribe, classify := usage.records[0], usage.records[1]
	assert.Equal(t, models.UsageTranscribe, transcribe.Operation)
	assert.Equal(t, "gemini-audio-test", transcribe.Model)
	assert.Equal(t, 120, *transcribe.InputTokens)
	assert.Nil(t, transcribe.OutputTokens)
	assert.Equal(t, caller.ID, *transcribe.UserID)

	assert.Equal(t, models.UsageClassify, classify.Operation)
	assert.Nil(t, classify.InputTokens)
	assert.Nil(t, classify.TotalTokens)
}

func TestAnalysisService_SuppliedTranscriptSkipsTranscription(t *testing.T) {
	transcriber := &stubTranscriber{text: "unused"}
	svc := newAnalysisService(triage.NewRuleClassifier(), transcriber, &fakeUsageRepo{})

	resp, err := svc.Analyze(context.Background(), &models.AnalyzeRequest{
		AudioRef:        "audio/a.webm",
		AudioTranscript: "fire in the bakery",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, transcriber.refs)
	assert.Equal(t, models.PriorityHigh, resp.Suggestion.Priority)
}

func TestAnalysisService_TranscribeErrors(t *testing.T) {
	svc := newAnalysisService(triage.NewRuleClassifier(), nil, &fakeUsageRepo{})
	_, err := svc.Transcribe(context.Background(), &models.TranscribeRequest{AudioRef: "audio/a.webm"}, nil)
	assert.ErrorIs(t, err, models.ErrRemoteService)

	failing := &stubTranscriber{err: models.ErrRemoteService}
	svc = newAnalysisService(triage.NewRuleClassifier(), failing, &fakeUsageRepo{})
	_, err = svc.Analyze(context.Background(), &models.AnalyzeRequest{AudioRef: "audio/a.webm"}, nil)
	assert.ErrorIs(t, err, models.ErrRemoteService)
}
