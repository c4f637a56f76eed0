// Package operation provides the domain model for asynchronous publish
// operations. An Operation moves through a linear lifecycle:
//
//	pending → running → complete | failed.
//
// The store is the authoritative source of truth for operation state; HTTP
// handlers read and write exclusively through it.
package operation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an operation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Artefact is a named output archived by an operation.
type Artefact struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Operation represents a single asynchronous publish of one article.
type Operation struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ArticleID is the figshare article created by the operation. A failed
	// operation may still carry one; the draft is not rolled back.
	ArticleID int64 `json:"article_id,omitempty"`

	// Artefacts lists the archived outputs of the operation.
	Artefacts []Artefact `json:"artefacts,omitempty"`

	// Error is non-empty if the operation reached StatusFailed.
	Error string `json:"error,omitempty"`
}

// Store persists and retrieves operations.
type Store interface {
	Create(title string) (*Operation, error)
	Get(id string) (*Operation, error)
	MarkRunning(id string) error
	MarkComplete(id string, articleID int64, artefacts []Artefact) error
	MarkFailed(id string, articleID int64, artefacts []Artefact, err error) error
}

// MemoryStore is a concurrency-safe in-memory Store implementation.
type MemoryStore struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ops: make(map[string]*Operation)}
}

func (s *MemoryStore) Create(title string) (*Operation, error) {
	now := time.Now()
	op := &Operation{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.ops[op.ID] = op
	s.mu.Unlock()

	copied := *op
	return &copied, nil
}

func (s *MemoryStore) Get(id string) (*Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.ops[id]
	if !ok {
		return nil, fmt.Errorf("operation %q not found", id)
	}
	// Return a copy to prevent callers from mutating internal state.
	copied := *op
	copied.Artefacts = append([]Artefact(nil), op.Artefacts...)
	return &copied, nil
}

func (s *MemoryStore) MarkRunning(id string) error {
	return s.update(id, func(op *Operation) {
		op.Status = StatusRunning
	})
}

func (s *MemoryStore) MarkComplete(id string, articleID int64, artefacts []Artefact) error {
	return s.update(id, func(op *Operation) {
		op.Status = StatusComplete
		op.ArticleID = articleID
		op.Artefacts = artefacts
	})
}

func (s *MemoryStore) MarkFailed(id string, articleID int64, artefacts []Artefact, err error) error {
	return s.update(id, func(op *Operation) {
		op.Status = StatusFailed
		op.ArticleID = articleID
		op.Artefacts = artefacts
		op.Error = err.Error()
	})
}

func (s *MemoryStore) update(id string, fn func(*Operation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[id]
	if !ok {
		return fmt.Errorf("operation %q not found", id)
	}
	fn(op)
	op.UpdatedAt = time.Now()
	return nil
}
