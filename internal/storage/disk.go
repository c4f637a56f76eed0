package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalArchive writes artefacts below a directory on the local filesystem.
type LocalArchive struct {
	baseDir string
}

// NewLocalArchive creates a LocalArchive rooted at baseDir, creating the
// directory if needed.
func NewLocalArchive(baseDir string) (*LocalArchive, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create local base directory %q: %w", baseDir, err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to resolve absolute path for %q: %w", baseDir, err)
	}
	return &LocalArchive{baseDir: abs}, nil
}

// Put writes obj to baseDir/obj.Name and returns a file:// URL for it. Names
// that would escape baseDir are rejected.
func (a *LocalArchive) Put(_ context.Context, obj *Object) (*Stored, error) {
	dest := filepath.Join(a.baseDir, filepath.FromSlash(obj.Name))
	if dest != a.baseDir && !strings.HasPrefix(dest, a.baseDir+string(filepath.Separator)) {
		return nil, fmt.Errorf("storage: object name %q escapes the archive", obj.Name)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create directory for %q: %w", obj.Name, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create file %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, obj.Content); err != nil {
		return nil, fmt.Errorf("storage: failed to write file %q: %w", dest, err)
	}

	fileURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(dest)}

	return &Stored{
		Name: obj.Name,
		URL:  fileURL.String(),
	}, nil
}
