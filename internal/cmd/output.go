package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tomasbasham/figshare/internal/config"
	"github.com/tomasbasham/figshare/internal/storage"
)

// Output formats accepted by --output.
const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

// printOutput writes v to w in the requested format.
func printOutput(w io.Writer, format string, v any) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

// openArchive returns the archive selected by cfg, or nil when archiving is
// disabled. The returned close function is never nil.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (storage.Archive, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.Bucket != "":
		archive, err := storage.NewGCSArchive(ctx, cfg.Bucket)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialise GCS archive: %w", err)
		}
		return archive, archive.Close, nil
	case cfg.Dir != "":
		archive, err := storage.NewLocalArchive(cfg.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialise local archive: %w", err)
		}
		return archive, noop, nil
	default:
		return nil, noop, nil
	}
}
