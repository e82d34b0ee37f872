// Package gcs reads and writes Google Cloud Storage objects.
package gcs

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// Upload writes r to bucket/object.
	Upload(ctx context.Context, bucket, object string, r io.Reader) error

	// Download returns the bytes of bucket/object.
	Download(ctx context.Context, bucket, object string) ([]byte, error)
}

// Client talks to Google Cloud Storage using Application Default Credentials
// (gcloud auth application-default login).
type Client struct {
	// Timeout bounds each upload. Zero means two minutes.
	Timeout time.Duration
}

// NewClient creates a Client.
func NewClient() *Client {
	return &Client{}
}

// Upload implements StorageService. The content type is derived from the
// object's extension.
func (c *Client) Upload(ctx context.Context, bucket, object string, r io.Reader) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("Upload: create storage client: %w", err)
	}
	defer client.Close()

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if ct := mime.TypeByExtension(path.Ext(object)); ct != "" {
		w.ContentType = ct
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("Upload: copy to %s: %w", URI(bucket, object), err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("Upload: finalize %s: %w", URI(bucket, object), err)
	}
	return nil
}

// Download implements StorageService.
func (c *Client) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Download: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Download: reading object %s: %w", URI(bucket, object), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Download: reading bytes: %w", err)
	}
	return data, nil
}

// IsURI reports whether s looks like a gs:// URI.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI builds gs://bucket/object.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

var _ StorageService = (*Client)(nil)
