package operation

import (
	"errors"
	"testing"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	s := NewMemoryStore()

	op, err := s.Create("OSR test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if op.ID == "" || op.Status != StatusPending || op.Title != "OSR test" {
		t.Fatalf("Create() = %+v", op)
	}

	if err := s.MarkRunning(op.ID); err != nil {
		t.Fatalf("MarkRunning() error = %v", err)
	}
	got, _ := s.Get(op.ID)
	if got.Status != StatusRunning {
		t.Errorf("Status = %q, want %q", got.Status, StatusRunning)
	}

	artefacts := []Artefact{{Name: "har", URL: "file:///tmp/x.har"}}
	if err := s.MarkComplete(op.ID, 42, artefacts); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	got, _ = s.Get(op.ID)
	if got.Status != StatusComplete || got.ArticleID != 42 || len(got.Artefacts) != 1 {
		t.Errorf("Get() = %+v", got)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}

	// Mutating the copy must not leak into the store.
	got.Artefacts[0].Name = "changed"
	again, _ := s.Get(op.ID)
	if again.Artefacts[0].Name != "har" {
		t.Errorf("store mutated through Get() copy")
	}
}

func TestMemoryStore_MarkFailed(t *testing.T) {
	s := NewMemoryStore()
	op, _ := s.Create("T")

	if err := s.MarkFailed(op.ID, 7, nil, errors.New("boom")); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	got, _ := s.Get(op.ID)
	if got.Status != StatusFailed || got.Error != "boom" || got.ArticleID != 7 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestMemoryStore_Unknown(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get("missing"); err == nil {
		t.Error("Get() expected error, got nil")
	}
	if err := s.MarkRunning("missing"); err == nil {
		t.Error("MarkRunning() expected error, got nil")
	}
}
