// Package blob stores uploaded images in an object store and returns their public URLs.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/harbourhotels/hotel-site/internal/config"
)

var (
	// ErrDisabled is returned when no storage driver is configured.
	ErrDisabled = errors.New("blob storage is not configured")
	// ErrTooLarge is returned when an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("upload exceeds the size limit")
	// ErrTooManyPixels is returned when an image declares more pixels than allowed.
	ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")
	// ErrNotImage is returned when an upload can not be decoded as an image.
	ErrNotImage = errors.New("upload is not a supported image")
	// ErrEmptyKey is returned for an empty object key.
	ErrEmptyKey = errors.New("object key cannot be empty")
)

// Bucket is an object store. Put returns the public URL of the stored object,
// callers keep it as an opaque string.
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New connects the bucket selected by cfg.Driver.
func New(ctx context.Context, cfg config.Storage) (Bucket, error) {
	switch cfg.Driver {
	case config.StorageMinIO:
		return NewMinIO(ctx, cfg.MinIO, cfg.PublicURL)
	case config.StorageS3:
		return NewS3(ctx, cfg.S3, cfg.PublicURL)
	default:
		return nil, ErrDisabled
	}
}

// publicURL joins base and key with exactly one slash.
func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}

	return key, nil
}
