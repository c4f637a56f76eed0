package operation

import (
	"context"
	"testing"

	"github.com/tomasbasham/figshare/internal/capture"
	"github.com/tomasbasham/figshare/internal/figshare"
	"github.com/tomasbasham/figshare/internal/storage"
)

func TestArchiveArtefacts(t *testing.T) {
	recorder := capture.NewRecorder(nil)

	t.Run("nil archive", func(t *testing.T) {
		artefacts, err := ArchiveArtefacts(context.Background(), "run", &figshare.Report{}, recorder, nil)
		if err != nil || artefacts != nil {
			t.Errorf("ArchiveArtefacts() = %v, %v; want nil, nil", artefacts, err)
		}
	})

	t.Run("without report", func(t *testing.T) {
		archive, err := storage.NewLocalArchive(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalArchive() error = %v", err)
		}
		artefacts, err := ArchiveArtefacts(context.Background(), "run", nil, recorder, archive)
		if err != nil {
			t.Fatalf("ArchiveArtefacts() error = %v", err)
		}
		if len(artefacts) != 1 || artefacts[0].Name != "har" {
			t.Errorf("artefacts = %+v, want only the HAR", artefacts)
		}
	})
}
