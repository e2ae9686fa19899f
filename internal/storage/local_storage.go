package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// LocalImageSource reads receipt images already persisted on local disk by
// the upload layer.
type LocalImageSource struct{}

// NewLocalImageSource creates a local-file image source.
func NewLocalImageSource() *LocalImageSource {
	return &LocalImageSource{}
}

// Fetch opens and decodes the image at the given path.
func (s *LocalImageSource) Fetch(ctx context.Context, ref string) (image.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", ref, err)
	}
	return img, nil
}
