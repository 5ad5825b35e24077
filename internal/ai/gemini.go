// Package ai talks to the Gemini inference endpoint for incident classification and audio
// transcription.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/storewatch/backend/internal/config"
	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/storage"
)

// MediaSource resolves evidence references to bytes.
type MediaSource interface {
	Resolve(ctx context.Context, ref string) (*storage.Media, error)
}

// GeminiClient classifies evidence and transcribes audio. It performs no retries.
type GeminiClient struct {
	client          *genai.Client
	model           string
	transcribeModel string
	temperature     float32
	timeout         time.Duration
	media           MediaSource
	log             *zap.Logger
}

func NewGeminiClient(ctx context.Context, cfg config.GenAIConfig, media MediaSource, log *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	transcribeModel := cfg.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = cfg.Model
	}
	return &GeminiClient{
		client:          client,
		model:           cfg.Model,
		transcribeModel: transcribeModel,
		temperature:     cfg.Temperature,
		timeout:         cfg.Timeout,
		media:           media,
		log:             log,
	}, nil
}

func (g *GeminiClient) Model() string {
	return g.model
}

func (g *GeminiClient) TranscribeModel() string {
	return g.transcribeModel
}

func (g *GeminiClient) Classify(ctx context.Context, evidence models.EvidenceBundle, settings models.IncidentSettings) (*models.ClassificationResult, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(evidencePrompt(evidence, settings))}
	if evidence.HasPhoto() {
		photo, err := g.media.Resolve(ctx, evidence.PhotoRef)
		if err != nil {
			return nil, fmt.Errorf("%w: load photo: %v", models.ErrRemoteService, err)
		}
		if !strings.HasPrefix(photo.MIMEType, "image/") {
			return nil, fmt.Errorf("%w: photo reference is %s, not an image", models.ErrClassification, photo.MIMEType)
		}
		parts = append(parts, genai.NewPartFromBytes(photo.Data, photo.MIMEType))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(classifyInstruction, genai.RoleUser),
			Temperature:       genai.Ptr(g.temperature),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    responseSchema(settings),
		})
	if err != nil {
		return nil, remoteError(ctx, "classify", err)
	}

	result, err := parseClassification(resp.Text())
	if err != nil {
		g.log.Warn("unparseable classification", zap.String("model", g.model), zap.Error(err))
		return nil, models.WithUsage(err, usageFrom(resp.UsageMetadata))
	}
	result.Usage = usageFrom(resp.UsageMetadata)
	return result, nil
}

// Transcribe converts the referenced audio recording to text.
func (g *GeminiClient) Transcribe(ctx context.Context, audioRef string) (string, *models.AIUsage, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	audio, err := g.media.Resolve(ctx, audioRef)
	if err != nil {
		return "", nil, fmt.Errorf("%w: load audio: %v", models.ErrRemoteService, err)
	}
	if !strings.HasPrefix(audio.MIMEType, "audio/") && !strings.HasPrefix(audio.MIMEType, "video/") {
		return "", nil, fmt.Errorf("%w: audio reference is %s", models.ErrValidation, audio.MIMEType)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(transcribeInstruction),
		genai.NewPartFromBytes(audio.Data, audio.MIMEType),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.transcribeModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)})
	if err != nil {
		return "", nil, remoteError(ctx, "transcribe", err)
	}
	return strings.TrimSpace(resp.Text()), usageFrom(resp.UsageMetadata), nil
}

func (g *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// remoteError keeps caller cancellation visible and reports everything else as a remote failure.
func remoteError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", models.ErrRemoteService, op, err)
}
