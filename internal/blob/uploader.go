package blob

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/harbourhotels/hotel-site/internal/config"
)

// Kind selects how an upload is normalised.
type Kind int

const (
	// KindImage is a content or logo image, fitted into the configured maximum size.
	KindImage Kind = iota
	// KindFavicon is fitted into FaviconSize and always stored as PNG.
	KindFavicon
)

const (
	// FaviconSize is the edge length of stored favicons.
	FaviconSize = 64

	defaultMaxUploadBytes = 10 << 20
	defaultMaxEdge        = 2400
	defaultMaxPixels      = 40_000_000
	defaultPrefix         = "uploads"
	jpegQuality           = 85
)

// Uploader validates, normalises and stores images.
type Uploader struct {
	bucket    Bucket
	prefix    string
	maxBytes  int64
	maxW      int
	maxH      int
	maxPixels int64 // width*height, checked before decoding

	now   func() time.Time
	newID func() string
}

// NewUploader returns an Uploader writing into bucket with limits from cfg.
func NewUploader(bucket Bucket, cfg config.Storage) *Uploader {
	u := &Uploader{
		bucket:    bucket,
		prefix:    cfg.Prefix,
		maxBytes:  cfg.MaxUploadBytes,
		maxW:      cfg.MaxImageWidth,
		maxH:      cfg.MaxImageHeight,
		maxPixels: cfg.MaxImagePixels,
		now:       time.Now,
		newID:     uuid.NewString,
	}

	if u.prefix == "" {
		u.prefix = defaultPrefix
	}

	if u.maxBytes <= 0 {
		u.maxBytes = defaultMaxUploadBytes
	}

	if u.maxW <= 0 {
		u.maxW = defaultMaxEdge
	}

	if u.maxH <= 0 {
		u.maxH = defaultMaxEdge
	}

	if u.maxPixels <= 0 {
		u.maxPixels = defaultMaxPixels
	}

	return u
}

// MaxBytes returns the upload size limit.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Upload reads an image from r, normalises it for kind and stores it.
// It returns the public URL of the stored object.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, kind Kind) (string, error) {
	if u == nil || u.bucket == nil {
		return "", ErrDisabled
	}

	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	if int64(len(data)) > u.maxBytes {
		return "", ErrTooLarge
	}

	body, ext, contentType, err := u.normalize(data, kind)
	if err != nil {
		return "", err
	}

	return u.bucket.Put(ctx, u.key(ext), bytes.NewReader(body), int64(len(body)), contentType)
}

// normalize decodes data, resizes it and encodes it again.
func (u *Uploader) normalize(data []byte, kind Kind) ([]byte, string, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", "", ErrNotImage
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", "", ErrNotImage
	}

	if int64(cfg.Width)*int64(cfg.Height) > u.maxPixels {
		return nil, "", "", ErrTooManyPixels
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", "", ErrNotImage
	}

	out := imaging.PNG

	switch {
	case kind == KindFavicon:
		img = imaging.Fit(img, FaviconSize, FaviconSize, imaging.Lanczos)
	default:
		b := img.Bounds()
		if b.Dx() > u.maxW || b.Dy() > u.maxH {
			img = imaging.Fit(img, u.maxW, u.maxH, imaging.Lanczos)
		}

		if format == "jpeg" {
			out = imaging.JPEG
		}
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, out, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", "", fmt.Errorf("encode image: %w", err)
	}

	if out == imaging.JPEG {
		return buf.Bytes(), "jpg", "image/jpeg", nil
	}

	return buf.Bytes(), "png", "image/png", nil
}

// key names objects <prefix>/<yyyy>/<mm>/<uuid>.<ext>.
func (u *Uploader) key(ext string) string {
	now := u.now().UTC()

	return fmt.Sprintf("%s/%04d/%02d/%s.%s", u.prefix, now.Year(), int(now.Month()), u.newID(), ext)
}
