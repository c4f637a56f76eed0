package operation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomasbasham/figshare/internal/capture"
	"github.com/tomasbasham/figshare/internal/figshare"
	"github.com/tomasbasham/figshare/internal/storage"
)

// UploaderFactory builds a fresh Uploader whose requests travel through hc.
type UploaderFactory func(hc *http.Client) (*figshare.Uploader, error)

// WorkerOptions configures a publish worker invocation.
type WorkerOptions struct {
	Article     figshare.Article
	OperationID string
	Store       Store
	NewUploader UploaderFactory

	// Archive receives the article representation and the HAR of the
	// session. Nil disables archiving.
	Archive storage.Archive

	Logger logrus.FieldLogger
}

// Run publishes the article, archives the artefacts, and transitions the
// operation through running → complete | failed.
//
// Run is intended to be called in a separate goroutine; it owns the full
// lifecycle of the operation from the moment it is called.
func Run(ctx context.Context, opts WorkerOptions) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("operation_id", opts.OperationID)

	if err := opts.Store.MarkRunning(opts.OperationID); err != nil {
		// If we cannot even mark it running the store is broken; nothing to do.
		log.WithError(err).Error("cannot mark operation running")
		return
	}

	recorder := capture.NewRecorder(nil)
	uploader, err := opts.NewUploader(recorder.Client())
	if err != nil {
		log.WithError(err).Warn("cannot create uploader")
		_ = opts.Store.MarkFailed(opts.OperationID, 0, nil, fmt.Errorf("uploader: %w", err))
		return
	}

	report, publishErr := figshare.Publish(ctx, uploader, opts.Article)

	var articleID int64
	if report != nil {
		articleID = report.ArticleID
	}

	// Artefacts are archived on failure too; the HAR is most useful then.
	artefacts, archiveErr := ArchiveArtefacts(ctx, opts.OperationID, report, recorder, opts.Archive)

	switch {
	case publishErr != nil:
		log.WithError(publishErr).WithField("article_id", articleID).Warn("publish failed")
		_ = opts.Store.MarkFailed(opts.OperationID, articleID, artefacts, fmt.Errorf("publish: %w", publishErr))
	case archiveErr != nil:
		log.WithError(archiveErr).WithField("article_id", articleID).Warn("archive failed")
		_ = opts.Store.MarkFailed(opts.OperationID, articleID, artefacts, fmt.Errorf("archive: %w", archiveErr))
	default:
		log.WithField("article_id", articleID).Info("publish complete")
		_ = opts.Store.MarkComplete(opts.OperationID, articleID, artefacts)
	}
}

// ArchiveArtefacts stores the report and the HAR of a session under the run
// id. Returns the artefacts archived before any error. A nil archive stores
// nothing.
func ArchiveArtefacts(ctx context.Context, runID string, report *figshare.Report, recorder *capture.Recorder, archive storage.Archive) ([]Artefact, error) {
	if archive == nil {
		return nil, nil
	}

	var artefacts []Artefact

	if report != nil {
		stored, err := storage.PutJSON(ctx, archive, objectPath(runID, "article.json"), report)
		if err != nil {
			return artefacts, err
		}
		artefacts = append(artefacts, toArtefact("article", stored))
	}

	stored, err := storage.PutJSON(ctx, archive, objectPath(runID, "exchanges.har"), recorder.HAR())
	if err != nil {
		return artefacts, err
	}
	artefacts = append(artefacts, toArtefact("har", stored))

	return artefacts, nil
}

func toArtefact(name string, stored *storage.Stored) Artefact {
	return Artefact{
		Name:      name,
		URL:       stored.URL,
		ExpiresAt: stored.ExpiresAt,
	}
}

func objectPath(runID, filename string) string {
	date := time.Now().UTC().Format("2006/01/02")
	return fmt.Sprintf("operations/%s/%s/%s", date, runID, filename)
}
