package index

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/docubrain/ragdex/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_AddAndSearch(t *testing.T) {
	s := newTestStore(t)

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	added, err := s.AddDocument("alice", doc, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !added {
		t.Fatal("expected added=true")
	}

	got, err := s.Search("alice", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ChunkID != "hash-a:0" {
		t.Errorf("unexpected candidates: %+v", got)
	}
}

func TestStore_DuplicateContentSkipped(t *testing.T) {
	s := newTestStore(t)

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	if _, err := s.AddDocument("alice", doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc2, chunks2 := testDoc("renamed.txt", "hash-a", []float32{0, 1})
	added, err := s.AddDocument("alice", doc2, chunks2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("expected added=false for duplicate content hash")
	}

	_, nChunks, err := s.Stats("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nChunks != 1 {
		t.Errorf("expected 1 chunk after dedup, got %d", nChunks)
	}
}

func TestStore_UsersAreIsolated(t *testing.T) {
	s := newTestStore(t)

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	if _, err := s.AddDocument("alice", doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Search("bob", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bob should not see alice's chunks, got %d", len(got))
	}
}

func TestStore_SearchMissingUserEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Search("nobody", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0}, []float32{0, 1})
	if _, err := s.AddDocument("alice", doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s2, err := NewStore(dir, 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	got, err := s2.Search("alice", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates after reload, got %d", len(got))
	}

	has, err := s2.HasDocument("alice", "hash-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Error("dedup state lost across reopen")
	}
}

func TestStore_CorruptFileFailsClosed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alice.gob"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s, err := NewStore(dir, 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if _, err := s.Search("alice", []float32{1, 0}, 5); !errors.Is(err, domain.ErrIndexCorrupted) {
		t.Errorf("expected ErrIndexCorrupted on search, got %v", err)
	}

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	if _, err := s.AddDocument("alice", doc, chunks); !errors.Is(err, domain.ErrIndexCorrupted) {
		t.Errorf("expected ErrIndexCorrupted on add, got %v", err)
	}
}

func TestStore_DimensionMismatchFailsClosed(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	if _, err := s.AddDocument("alice", doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Reopen with a different embedding dimension.
	s2, err := NewStore(dir, 3)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := s2.Search("alice", []float32{1, 0, 0}, 5); !errors.Is(err, domain.ErrIndexCorrupted) {
		t.Errorf("expected ErrIndexCorrupted for dimension mismatch, got %v", err)
	}
}

func TestStore_ConcurrentSearchAndAdd(t *testing.T) {
	s := newTestStore(t)

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	if _, err := s.AddDocument("alice", doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := s.Search("alice", []float32{1, 0}, 5); err != nil {
					t.Errorf("search: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		doc, chunks := testDoc("b.txt", "hash-b", []float32{0, 1})
		if _, err := s.AddDocument("alice", doc, chunks); err != nil {
			t.Errorf("add: %v", err)
		}
	}()
	wg.Wait()
}

func TestSafeFileName(t *testing.T) {
	if got := safeFileName("__DEFAULT__"); got != "__DEFAULT__" {
		t.Errorf("safe ID rewritten: %q", got)
	}
	if got := safeFileName("user@example.com/../etc"); got == "user@example.com/../etc" {
		t.Error("unsafe ID not rewritten")
	}
	if safeFileName("..") == ".." {
		t.Error("dot-dot must be rewritten")
	}
}
