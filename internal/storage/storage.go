package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Archive keeps the artefacts of a publish run, such as the article
// representation and the HAR of the API session.
type Archive interface {
	Put(ctx context.Context, obj *Object) (*Stored, error)
}

// Object is a single artefact to archive.
type Object struct {
	// Name is the slash-separated path of the artefact within the archive.
	Name string

	// Content is the data to be written.
	Content io.Reader

	// ContentType is the MIME type of the content, e.g. "application/json".
	ContentType string
}

// Stored describes an archived artefact.
type Stored struct {
	Name string

	// URL locates the artefact. For GCS it is a signed URL that stops working
	// at ExpiresAt; local files have no expiry.
	URL       string
	ExpiresAt time.Time
}

// PutJSON marshals v with indentation and archives it under name.
func PutJSON(ctx context.Context, a Archive, name string, v any) (*Stored, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("storage: failed to marshal %q: %w", name, err)
	}
	return a.Put(ctx, &Object{
		Name:        name,
		Content:     bytes.NewReader(data),
		ContentType: "application/json",
	})
}
