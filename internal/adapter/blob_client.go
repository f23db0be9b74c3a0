package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linkbio/internal/config"
	apperrors "github.com/linkbio/internal/errors"
)

const defaultStorageTimeout = 30 * time.Second

// allowedImageTypes are the content types accepted for image uploads
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// BlobClient uploads files to the object storage service over its HTTP API.
// Buckets are public; uploaded objects are addressed by their public URL.
type BlobClient struct {
	baseURL string
	apiKey  string
	maxSize int64
	client  *http.Client
}

// NewBlobClient creates a new object storage client
func NewBlobClient(cfg *config.StorageConfig) *BlobClient {
	return &BlobClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		maxSize: cfg.MaxFileSizeBytes,
		client:  &http.Client{Timeout: defaultStorageTimeout},
	}
}

// ValidateImage checks content type and size before any bytes leave the
// process. Returns the canonical file extension for the content type.
func (c *BlobClient) ValidateImage(contentType string, size int64) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", apperrors.NewInvalidFileTypeError(contentType)
	}

	if size > c.maxSize {
		return "", apperrors.NewFileSizeExceededError(c.maxSize)
	}

	return ext, nil
}

// Upload stores an object and returns its public URL
func (c *BlobClient) Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, url.PathEscape(bucket), objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.NewUpstreamError("storage", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.NewUpstreamError("storage",
			fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body)))
	}

	return c.PublicURL(bucket, objectPath), nil
}

// Delete removes an object. Missing objects are not an error.
func (c *BlobClient) Delete(ctx context.Context, bucket, objectPath string) error {
	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, url.PathEscape(bucket), objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewUpstreamError("storage", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return apperrors.NewUpstreamError("storage", fmt.Errorf("delete failed with status %d", resp.StatusCode))
	}

	return nil
}

// PublicURL returns the public address of an object
func (c *BlobClient) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, url.PathEscape(bucket), objectPath)
}
