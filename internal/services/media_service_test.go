package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/models"
)

func TestMediaService_Upload(t *testing.T) {
	store := &fakeEvidenceStore{}
	svc := NewMediaService(store, 1024, zap.NewNop())

	resp, err := svc.Upload(context.Background(), "photo", Upload{
		Filename: "shelf.jpg",
		Size:     5,
		Body:     strings.NewReader("image"),
	})
	require.NoError(t, err)
	assert.Equal(t, "photos/shelf.jpg", resp.Ref)
	assert.Contains(t, resp.URL, "signed=1")
	assert.Equal(t, []byte("image"), store.objects["photos/shelf.jpg"])
}

func TestMediaService_UploadRejects(t *testing.T) {
	svc := NewMediaService(&fakeEvidenceStore{}, 4, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		kind string
		file Upload
	}{
		{"unknown kind", "video", Upload{Filename: "a.mp4", ContentType: "video/mp4", Size: 1, Body: strings.NewReader("a")}},
		{"photo not image", "photo", Upload{Filename: "a.txt", ContentType: "text/plain", Size: 1, Body: strings.NewReader("a")}},
		{"audio not audio", "audio", Upload{Filename: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("a")}},
		{"empty", "audio", Upload{Filename: "a.mp3", ContentType: "audio/mpeg", Size: 0, Body: strings.NewReader("")}},
		{"too large", "audio", Upload{Filename: "a.mp3", ContentType: "audio/mpeg", Size: 5, Body: strings.NewReader("aaaaa")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.kind, tt.file)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestMediaService_NoStorage(t *testing.T) {
	svc := NewMediaService(nil, 0, zap.NewNop())
	_, err := svc.Upload(context.Background(), "photo", Upload{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("a")})
	assert.ErrorIs(t, err, models.ErrRemoteService)
}
