package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/triage"
)

// Transcriber turns an audio reference into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioRef string) (string, *models.AIUsage, error)
}

type AnalysisService interface {
	Analyze(ctx context.Context, req *models.AnalyzeRequest, caller *models.UserProfile) (*models.AnalysisResponse, error)
	Transcribe(ctx context.Context, req *models.TranscribeRequest, caller *models.UserProfile) (*models.TranscriptionResponse, error)
}

// AnalysisModels names the models usage records are attributed to.
type AnalysisModels struct {
	Classify   string
	Transcribe string
}

type analysisService struct {
	classifier  triage.Classifier
	transcriber Transcriber
	settings    triage.SettingsProvider
	usage       UsageService
	models      AnalysisModels
	log         *zap.Logger
}

// NewAnalysisService builds the analysis use case. transcriber may be nil, in which case audio
// references are rejected and only supplied transcripts are used.
func NewAnalysisService(
	classifier triage.Classifier,
	transcriber Transcriber,
	settings triage.SettingsProvider,
	usage UsageService,
	names AnalysisModels,
	log *zap.Logger,
) AnalysisService {
	return &analysisService{
		classifier:  triage.NewValidatingClassifier(classifier),
		transcriber: transcriber,
		settings:    settings,
		usage:       usage,
		models:      names,
		log:         log,
	}
}

// Analyze suggests an incident structure for the supplied evidence. When the classifier fails
// the response is a manual-entry suggestion with Fallback set instead of an error.
func (s *analysisService) Analyze(ctx context.Context, req *models.AnalyzeRequest, caller *models.UserProfile) (*models.AnalysisResponse, error) {
	transcript := strings.TrimSpace(req.AudioTranscript)
	if transcript == "" && strings.TrimSpace(req.AudioRef) != "" {
		resp, err := s.Transcribe(ctx, &models.TranscribeRequest{AudioRef: req.AudioRef}, caller)
		if err != nil {
			return nil, err
		}
		transcript = resp.Text
	}

	evidence, err := triage.Normalize(req.PhotoRef, transcript, req.TextDescription)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incident settings: %w", err)
	}

	result, err := s.classifier.Classify(ctx, evidence, settings)
	if err != nil {
		if errors.Is(err, models.ErrClassification) || errors.Is(err, models.ErrRemoteService) {
			s.log.Warn("classification failed, falling back to manual entry", zap.Error(err))
			s.recordUsage(ctx, caller, models.UsageClassify, s.models.Classify, models.UsageOf(err))
			return &models.AnalysisResponse{
				Suggestion: models.ClassificationResult{
					Status:      models.StatusOpen,
					Description: triage.Describe(evidence),
				},
				Evidence: evidence,
				Fallback: true,
				Reason:   err.Error(),
			}, nil
		}
		return nil, err
	}

	s.recordUsage(ctx, caller, models.UsageClassify, s.models.Classify, result.Usage)

	return &models.AnalysisResponse{
		Suggestion: *result,
		Evidence:   evidence,
	}, nil
}

func (s *analysisService) Transcribe(ctx context.Context, req *models.TranscribeRequest, caller *models.UserProfile) (*models.TranscriptionResponse, error) {
	if s.transcriber == nil {
		return nil, fmt.Errorf("%w: transcription is not configured", models.ErrRemoteService)
	}
	ref := strings.TrimSpace(req.AudioRef)
	if ref == "" {
		return nil, fmt.Errorf("%w: audio reference is required", models.ErrValidation)
	}

	text, usage, err := s.transcriber.Transcribe(ctx, ref)
	if err != nil {
		return nil, err
	}

	s.recordUsage(ctx, caller, models.UsageTranscribe, s.models.Transcribe, usage)

	return &models.TranscriptionResponse{Text: text, Usage: usage}, nil
}

// recordUsage accounts calls that reached a remote model. Local classifications carry no usage.
func (s *analysisService) recordUsage(ctx context.Context, caller *models.UserProfile, op models.UsageOperation, model string, usage *models.AIUsage) {
	if usage == nil || s.usage == nil {
		return
	}

	var userID *uuid.UUID
	if caller != nil {
		id := caller.ID
		userID = &id
	}
	if err := s.usage.Record(ctx, userID, op, model, usage); err != nil {
		s.log.Error("failed to record usage", zap.String("operation", string(op)), zap.Error(err))
	}
}
