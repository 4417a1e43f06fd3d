package index

import (
	"math"
	"testing"

	"github.com/docubrain/ragdex/internal/domain"
)

func testDoc(name, hash string, vectors ...[]float32) (domain.Document, []domain.Chunk) {
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:           domain.ChunkID(hash, i),
			DocumentName: name,
			Ordinal:      i,
			Text:         "chunk text",
			Vector:       v,
		}
	}
	return domain.Document{Name: name, ContentHash: hash, ChunkCount: len(chunks)}, chunks
}

func TestIndex_AddAndSearch(t *testing.T) {
	ix := New(2)

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0}, []float32{0, 1})
	if err := ix.AddDocument(doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ix.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].ChunkID != "hash-a:0" {
		t.Errorf("expected nearest chunk hash-a:0, got %s", got[0].ChunkID)
	}
	if got[0].Distance > 1e-6 {
		t.Errorf("identical vector should have distance ~0, got %v", got[0].Distance)
	}
}

func TestIndex_SearchOrderedAscending(t *testing.T) {
	ix := New(2)

	doc, chunks := testDoc("a.txt", "hash-a",
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{1, 1},
	)
	if err := ix.AddDocument(doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ix.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("candidates not sorted ascending at %d: %v then %v",
				i, got[i-1].Distance, got[i].Distance)
		}
	}
	if got[0].ChunkID != "hash-a:1" {
		t.Errorf("expected hash-a:1 first, got %s", got[0].ChunkID)
	}
}

func TestIndex_SearchKLimit(t *testing.T) {
	ix := New(2)

	doc, chunks := testDoc("a.txt", "hash-a",
		[]float32{1, 0}, []float32{0, 1}, []float32{1, 1}, []float32{2, 1},
	)
	if err := ix.AddDocument(doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ix.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(got))
	}
}

func TestIndex_SearchEmpty(t *testing.T) {
	ix := New(2)

	got, err := ix.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ix := New(3)

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	if err := ix.AddDocument(doc, chunks); err == nil {
		t.Fatal("expected dimension error on add")
	}
	if _, err := ix.Search([]float32{1, 0}, 5); err == nil {
		t.Fatal("expected dimension error on search")
	}
}

func TestIndex_DuplicateDocumentRejected(t *testing.T) {
	ix := New(2)

	doc, chunks := testDoc("a.txt", "hash-a", []float32{1, 0})
	if err := ix.AddDocument(doc, chunks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc2, chunks2 := testDoc("copy-of-a.txt", "hash-a", []float32{0, 1})
	if err := ix.AddDocument(doc2, chunks2); err == nil {
		t.Fatal("expected error for duplicate content hash")
	}
}

func TestCosineDistance_Clamped(t *testing.T) {
	a := []float32{1, 0}
	if d := cosineDistance(a, a); d != 0 {
		t.Errorf("self distance = %v, want 0", d)
	}

	opposite := []float32{-1, 0}
	if d := cosineDistance(a, opposite); math.Abs(d-2) > 1e-6 {
		t.Errorf("opposite distance = %v, want 2", d)
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	normalize(v)
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector changed: %v", v)
		}
	}
}
