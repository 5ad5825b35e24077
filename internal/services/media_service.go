package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/storage"
)

// EvidenceStore keeps uploaded evidence files.
type EvidenceStore interface {
	MediaURLSigner
	UploadEvidence(ctx context.Context, r io.Reader, size int64, filename, contentType, folder string) (string, error)
}

// Upload is one evidence file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaService interface {
	// Upload stores a photo or audio file and returns the reference to send with an analysis or
	// incident request.
	Upload(ctx context.Context, kind string, file Upload) (*models.MediaUploadResponse, error)
}

type mediaService struct {
	store    EvidenceStore
	maxBytes int64
	log      *zap.Logger
}

func NewMediaService(store EvidenceStore, maxBytes int64, log *zap.Logger) MediaService {
	return &mediaService{store: store, maxBytes: maxBytes, log: log}
}

func (s *mediaService) Upload(ctx context.Context, kind string, file Upload) (*models.MediaUploadResponse, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: media storage is not configured", models.ErrRemoteService)
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Filename)))
	}

	var folder string
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "photo":
		if !strings.HasPrefix(contentType, "image/") {
			return nil, fmt.Errorf("%w: photo must be an image, got %q", models.ErrValidation, contentType)
		}
		folder = storage.FolderPhotos
	case "audio":
		if !strings.HasPrefix(contentType, "audio/") && !strings.HasPrefix(contentType, "video/") {
			return nil, fmt.Errorf("%w: audio must be an audio recording, got %q", models.ErrValidation, contentType)
		}
		folder = storage.FolderAudio
	default:
		return nil, fmt.Errorf("%w: media kind must be photo or audio", models.ErrValidation)
	}

	if file.Size <= 0 {
		return nil, fmt.Errorf("%w: file is empty", models.ErrValidation)
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", models.ErrValidation, s.maxBytes)
	}

	key, err := s.store.UploadEvidence(ctx, file.Body, file.Size, file.Filename, contentType, folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRemoteService, err)
	}

	s.log.Info("evidence uploaded", zap.String("key", key), zap.Int64("size", file.Size))

	return &models.MediaUploadResponse{
		Ref: key,
		URL: mediaURL(ctx, s.store, key, s.log),
	}, nil
}

// mediaURL returns a browser-usable URL for a media reference. http(s) references are returned
// as is, data URIs get none and object keys are presigned when a signer is available.
func mediaURL(ctx context.Context, signer MediaURLSigner, ref string, log *zap.Logger) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	case strings.HasPrefix(ref, "data:"):
		return ""
	case signer == nil:
		return ""
	}

	url, err := signer.GetFileURL(ctx, ref)
	if err != nil {
		log.Warn("presign media failed", zap.String("ref", ref), zap.Error(err))
		return ""
	}
	return url
}
