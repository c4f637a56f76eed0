// Package server provides the HTTP API for asynchronous publish operations.
//
// Endpoints:
//
//	POST /articles        enqueue a publish; returns operation ID immediately
//	GET  /articles/{id}   poll operation status, article id and artefact URLs
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomasbasham/figshare/internal/figshare"
	"github.com/tomasbasham/figshare/internal/operation"
	"github.com/tomasbasham/figshare/internal/storage"
)

// Server holds the dependencies shared across HTTP handlers.
type Server struct {
	store       operation.Store
	archive     storage.Archive
	newUploader operation.UploaderFactory
	logger      logrus.FieldLogger
	mux         *http.ServeMux

	// run executes an operation; tests replace it to run synchronously.
	run func(ctx context.Context, opts operation.WorkerOptions)
}

// New creates a Server wired to the given store, archive and uploader factory.
func New(store operation.Store, archive storage.Archive, newUploader operation.UploaderFactory, logger logrus.FieldLogger) *Server {
	s := &Server{
		store:       store,
		archive:     archive,
		newUploader: newUploader,
		logger:      logger,
		run: func(ctx context.Context, opts operation.WorkerOptions) {
			go operation.Run(ctx, opts)
		},
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("POST /articles", s.handleCreateArticle)
	s.mux.HandleFunc("GET /articles/{id}", s.handleGetArticle)

	return s
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address and shuts it
// down when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// createArticleRequest is the JSON body for POST /articles.
type createArticleRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DefinedType string   `json:"defined_type,omitempty"`
	Links       []string `json:"links,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// createArticleResponse is returned immediately from POST /articles.
type createArticleResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	article := figshare.Article{
		Title:       req.Title,
		Description: req.Description,
		DefinedType: req.DefinedType,
		Links:       req.Links,
		Tags:        req.Tags,
	}
	if err := article.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	op, err := s.store.Create(article.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create operation: "+err.Error())
		return
	}

	// The publish must outlive the HTTP request that started it.
	ctx := context.WithoutCancel(r.Context())
	s.run(ctx, operation.WorkerOptions{
		Article:     article,
		OperationID: op.ID,
		Store:       s.store,
		NewUploader: s.newUploader,
		Archive:     s.archive,
		Logger:      s.logger,
	})

	s.logger.WithFields(logrus.Fields{
		"operation_id": op.ID,
		"title":        article.Title,
	}).Info("publish enqueued")

	writeJSON(w, http.StatusAccepted, createArticleResponse{
		OperationID: op.ID,
		Status:      string(operation.StatusPending),
	})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "operation id is required")
		return
	}

	op, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("operation %q not found", id))
		return
	}

	writeJSON(w, http.StatusOK, op)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
