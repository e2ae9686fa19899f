package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"
)

// ImageSource resolves a reference (local path, URL, blob URL) to a decoded
// image. The receipt has already been persisted by the upload layer; sources
// never manage its lifecycle.
type ImageSource interface {
	Fetch(ctx context.Context, ref string) (image.Image, error)
}

// HTTPImageSource fetches receipt images over HTTP(S).
type HTTPImageSource struct {
	client *http.Client
}

// NewHTTPImageSource creates an HTTP image source.
func NewHTTPImageSource(timeout time.Duration) *HTTPImageSource {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPImageSource{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Fetch downloads and decodes the image, retrying transient failures.
func (h *HTTPImageSource) Fetch(ctx context.Context, ref string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, */*")
	req.Header.Set("User-Agent", "Receipt-Recognizer/1.0")

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err = h.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if err != nil {
			lastErr = err
			resp = nil
		} else {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			retryable := resp.StatusCode >= 500
			resp.Body.Close()
			resp = nil
			// Client errors are not retryable.
			if !retryable {
				break
			}
		}
		if attempt < 2 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}
	if resp == nil {
		return nil, fmt.Errorf("failed to fetch image after retries: %w", lastErr)
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
