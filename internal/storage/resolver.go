package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrMediaNotFound = errors.New("media not found")
	ErrMediaTooLarge = errors.New("media too large")
	ErrInvalidMedia  = errors.New("invalid media reference")
)

// Media is resolved evidence content.
type Media struct {
	Data     []byte
	MIMEType string
}

// ObjectReader reads stored objects by key.
type ObjectReader interface {
	ReadObject(ctx context.Context, key string, maxBytes int64) ([]byte, string, error)
}

// Resolver turns evidence references into bytes. A reference is a data: URI, an http(s) URL or
// an object key in the evidence bucket.
type Resolver struct {
	objects  ObjectReader
	http     *resty.Client
	maxBytes int64
}

func NewResolver(objects ObjectReader, timeout time.Duration, maxBytes int64) *Resolver {
	return &Resolver{
		objects:  objects,
		http:     resty.New().SetTimeout(timeout).SetRetryCount(0),
		maxBytes: maxBytes,
	}
}

func (r *Resolver) Resolve(ctx context.Context, ref string) (*Media, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, ErrInvalidMedia
	case strings.HasPrefix(ref, "data:"):
		return r.decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.fetch(ctx, ref)
	}

	if r.objects == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrMediaNotFound)
	}
	data, contentType, err := r.objects.ReadObject(ctx, ref, r.maxBytes)
	if err != nil {
		return nil, err
	}
	return &Media{Data: data, MIMEType: mediaType(contentType, ref)}, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) (*Media, error) {
	resp, err := r.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, url)
	case resp.IsError():
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	body := resp.Body()
	if r.maxBytes > 0 && int64(len(body)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrMediaTooLarge, url, len(body))
	}
	return &Media{Data: body, MIMEType: mediaType(resp.Header().Get("Content-Type"), url)}, nil
}

func (r *Resolver) decodeDataURI(ref string) (*Media, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URI without payload", ErrInvalidMedia)
	}

	mimeType, isBase64 := header, false
	if strings.HasSuffix(header, ";base64") {
		mimeType, isBase64 = strings.TrimSuffix(header, ";base64"), true
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMedia, err)
		}
		data = decoded
	} else {
		data = []byte(payload)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: inline media is %d bytes", ErrMediaTooLarge, len(data))
	}
	return &Media{Data: data, MIMEType: mimeType}, nil
}

// mediaType prefers a specific content type and falls back to the reference's extension.
func mediaType(contentType, ref string) string {
	if ct, _, err := mime.ParseMediaType(contentType); err == nil && ct != "application/octet-stream" {
		return ct
	}
	path := ref
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if ct, _, err := mime.ParseMediaType(byExt); err == nil {
			return ct
		}
	}
	return "application/octet-stream"
}
