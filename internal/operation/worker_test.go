package operation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/tomasbasham/figshare/internal/credentials"
	"github.com/tomasbasham/figshare/internal/figshare"
	"github.com/tomasbasham/figshare/internal/storage"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func factoryFor(baseURL string) UploaderFactory {
	creds := &credentials.Credentials{ClientKey: "K", ClientSecret: "S", TokenKey: "TK", TokenSecret: "TS"}
	return func(hc *http.Client) (*figshare.Uploader, error) {
		return figshare.New(creds,
			figshare.WithBaseURL(baseURL),
			figshare.WithHTTPClient(hc),
			figshare.WithQuiet(true),
		)
	}
}

func TestRun_Complete(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"article_id": 42}`)
			return
		}
		io.WriteString(w, `{"ok": true}`)
	}))
	defer api.Close()

	dir := t.TempDir()
	archive, err := storage.NewLocalArchive(dir)
	if err != nil {
		t.Fatalf("NewLocalArchive() error = %v", err)
	}

	store := NewMemoryStore()
	op, _ := store.Create("T")

	Run(context.Background(), WorkerOptions{
		Article:     figshare.Article{Title: "T", Description: "D", Tags: []string{"a"}},
		OperationID: op.ID,
		Store:       store,
		NewUploader: factoryFor(api.URL),
		Archive:     archive,
		Logger:      quietLogger(),
	})

	got, _ := store.Get(op.ID)
	if got.Status != StatusComplete {
		t.Fatalf("Status = %q (error %q), want complete", got.Status, got.Error)
	}
	if got.ArticleID != 42 {
		t.Errorf("ArticleID = %d, want 42", got.ArticleID)
	}
	if len(got.Artefacts) != 2 || got.Artefacts[0].Name != "article" || got.Artefacts[1].Name != "har" {
		t.Fatalf("Artefacts = %+v", got.Artefacts)
	}

	harPath := strings.TrimPrefix(got.Artefacts[1].URL, "file://")
	data, err := os.ReadFile(filepath.FromSlash(harPath))
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", harPath, err)
	}
	// create, upload, one tag, info.
	if n := strings.Count(string(data), `"startedDateTime"`); n != 4 {
		t.Errorf("HAR has %d entries, want 4", n)
	}
	if strings.Contains(string(data), "oauth_signature") {
		t.Error("HAR leaks the OAuth signature")
	}
}

func TestRun_Failed(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": "invalid signature"}`)
	}))
	defer api.Close()

	store := NewMemoryStore()
	op, _ := store.Create("T")

	Run(context.Background(), WorkerOptions{
		Article:     figshare.Article{Title: "T"},
		OperationID: op.ID,
		Store:       store,
		NewUploader: factoryFor(api.URL),
		Logger:      quietLogger(),
	})

	got, _ := store.Get(op.ID)
	if got.Status != StatusFailed {
		t.Fatalf("Status = %q, want failed", got.Status)
	}
	if !strings.Contains(got.Error, "status 401") {
		t.Errorf("Error = %q", got.Error)
	}
	if got.ArticleID != 0 || len(got.Artefacts) != 0 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestRun_UploaderError(t *testing.T) {
	store := NewMemoryStore()
	op, _ := store.Create("T")
	logger, hook := logtest.NewNullLogger()

	Run(context.Background(), WorkerOptions{
		Article:     figshare.Article{Title: "T"},
		OperationID: op.ID,
		Store:       store,
		NewUploader: func(*http.Client) (*figshare.Uploader, error) {
			return nil, errors.New("no credentials")
		},
		Logger: logger,
	})

	got, _ := store.Get(op.ID)
	if got.Status != StatusFailed || !strings.Contains(got.Error, "no credentials") {
		t.Errorf("Get() = %+v, want failed with uploader error", got)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("last log entry = %+v, want a warning", entry)
	}
	if entry.Data["operation_id"] != op.ID || entry.Data[logrus.ErrorKey] == nil {
		t.Errorf("entry fields = %v", entry.Data)
	}
}
