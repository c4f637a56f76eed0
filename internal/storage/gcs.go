// Package storage archives the artefacts of publish runs. The GCS
// implementation is the production backend; LocalArchive serves the CLI and
// tests.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const signedURLTTL = 1 * time.Hour

// GCSArchive writes artefacts to a Google Cloud Storage bucket.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive creates a GCSArchive for the given bucket. opts are passed
// through to the underlying GCS client, allowing credential injection.
func NewGCSArchive(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSArchive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket name is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create GCS client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket}, nil
}

// Put writes obj to the bucket and returns a signed URL for it.
func (a *GCSArchive) Put(ctx context.Context, obj *Object) (*Stored, error) {
	handle := a.client.Bucket(a.bucket).Object(obj.Name)
	w := handle.NewWriter(ctx)
	w.ContentType = obj.ContentType

	if _, err := io.Copy(w, obj.Content); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("storage: upload write failed for %q: %w", obj.Name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("storage: upload close failed for %q: %w", obj.Name, err)
	}

	expiresAt := time.Now().Add(signedURLTTL)
	signedURL, err := a.client.Bucket(a.bucket).SignedURL(obj.Name, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to sign URL for %q: %w", obj.Name, err)
	}

	return &Stored{
		Name:      obj.Name,
		URL:       signedURL,
		ExpiresAt: expiresAt,
	}, nil
}

// Close releases the GCS client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}
