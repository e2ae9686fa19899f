package repository

import (
	"context"
	"errors"
	"image"
	"strings"

	"go-receipt-recognizer/internal/storage"
)

var (
	// ErrEmptyReference indicates an empty image reference
	ErrEmptyReference = errors.New("empty image reference")

	// ErrBlobSourceUnavailable indicates a blob reference without a
	// configured Azure source
	ErrBlobSourceUnavailable = errors.New("blob storage source not configured")
)

// ReceiptImageRepository resolves an image reference from the upload layer
// to a decoded image. References may be local paths, HTTP(S) URLs or Azure
// blob URLs.
type ReceiptImageRepository interface {
	Resolve(ctx context.Context, ref string) (image.Image, error)
	Validate(ref string) error
}

type imageRepository struct {
	local storage.ImageSource
	http  storage.ImageSource
	blob  storage.ImageSource // nil when Azure is not configured
}

// NewImageRepository creates a repository over the given sources. blob may
// be nil.
func NewImageRepository(local, http, blob storage.ImageSource) ReceiptImageRepository {
	return &imageRepository{local: local, http: http, blob: blob}
}

// Resolve picks a source by reference shape and fetches the image.
func (r *imageRepository) Resolve(ctx context.Context, ref string) (image.Image, error) {
	if err := r.Validate(ref); err != nil {
		return nil, err
	}
	switch {
	case isBlobRef(ref):
		if r.blob == nil {
			return nil, ErrBlobSourceUnavailable
		}
		return r.blob.Fetch(ctx, ref)
	case isHTTPRef(ref):
		return r.http.Fetch(ctx, ref)
	default:
		return r.local.Fetch(ctx, ref)
	}
}

// Validate checks that the reference is usable.
func (r *imageRepository) Validate(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return ErrEmptyReference
	}
	if isBlobRef(ref) && r.blob == nil {
		return ErrBlobSourceUnavailable
	}
	return nil
}

func isHTTPRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func isBlobRef(ref string) bool {
	return isHTTPRef(ref) && strings.Contains(ref, ".blob.core.windows.net")
}
