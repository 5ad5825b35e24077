package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/config"
)

// Evidence folders inside the bucket.
const (
	FolderPhotos = "photos"
	FolderAudio  = "audio"
)

type MinIOStorage struct {
	client     *minio.Client
	bucketName string
	urlExpiry  time.Duration
}

func NewMinIOStorage(ctx context.Context, cfg *config.MinIOConfig, log *zap.Logger) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("bucket created", zap.String("bucket", cfg.BucketName))
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	log.Info("minio storage connected", zap.String("endpoint", cfg.Endpoint))
	return &MinIOStorage{
		client:     client,
		bucketName: cfg.BucketName,
		urlExpiry:  expiry,
	}, nil
}

// UploadEvidence stores an evidence file under folder with a generated name and returns its key.
func (s *MinIOStorage) UploadEvidence(ctx context.Context, r io.Reader, size int64, filename, contentType, folder string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("%s/%s/%s%s", folder, time.Now().UTC().Format("2006/01/02"), uuid.New().String(), ext)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return key, nil
}

// ReadObject returns at most maxBytes of the object and its content type.
func (s *MinIOStorage) ReadObject(ctx context.Context, key string, maxBytes int64) ([]byte, string, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", fmt.Errorf("%w: %s", ErrMediaNotFound, key)
		}
		return nil, "", fmt.Errorf("failed to stat object: %w", err)
	}
	if maxBytes > 0 && info.Size > maxBytes {
		return nil, "", fmt.Errorf("%w: %s is %d bytes", ErrMediaTooLarge, key, info.Size)
	}

	object, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, info.ContentType, nil
}

func (s *MinIOStorage) GetFileURL(ctx context.Context, key string) (string, error) {
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get presigned URL: %w", err)
	}
	return presignedURL.String(), nil
}

func (s *MinIOStorage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}
