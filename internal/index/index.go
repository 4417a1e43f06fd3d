package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/docubrain/ragdex/internal/domain"
)

// Index is a flat in-memory vector index over document chunks.
// Vectors are L2-normalized on insert so cosine distance reduces to
// 1 - dot product. Not safe for concurrent use; Store provides the
// locking discipline.
type Index struct {
	dim    int
	chunks []domain.Chunk
	docs   map[string]domain.Document // keyed by content hash
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{
		dim:  dim,
		docs: make(map[string]domain.Document),
	}
}

// HasDocument reports whether content with this hash is already indexed.
func (ix *Index) HasDocument(contentHash string) bool {
	_, ok := ix.docs[contentHash]
	return ok
}

// AddDocument inserts a document and all of its chunks. Chunk vectors
// are normalized in place. All-or-nothing: a bad vector rejects the
// whole document.
func (ix *Index) AddDocument(doc domain.Document, chunks []domain.Chunk) error {
	if ix.HasDocument(doc.ContentHash) {
		return fmt.Errorf("document %s already indexed", doc.Name)
	}
	for i := range chunks {
		if len(chunks[i].Vector) != ix.dim {
			return fmt.Errorf("chunk %s: vector dimension %d, index expects %d",
				chunks[i].ID, len(chunks[i].Vector), ix.dim)
		}
	}

	for i := range chunks {
		normalize(chunks[i].Vector)
	}
	ix.chunks = append(ix.chunks, chunks...)
	ix.docs[doc.ContentHash] = doc
	return nil
}

// Search returns the k nearest chunks by cosine distance, ascending.
// An empty index returns no candidates.
func (ix *Index) Search(query []float32, k int) ([]domain.Candidate, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query vector dimension %d, index expects %d", len(query), ix.dim)
	}
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	candidates := make([]domain.Candidate, 0, len(ix.chunks))
	for i := range ix.chunks {
		candidates = append(candidates, domain.Candidate{
			ChunkID:      ix.chunks[i].ID,
			DocumentName: ix.chunks[i].DocumentName,
			Text:         ix.chunks[i].Text,
			Distance:     cosineDistance(q, ix.chunks[i].Vector),
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Distance < candidates[b].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// ChunkCount returns the number of indexed chunks.
func (ix *Index) ChunkCount() int { return len(ix.chunks) }

// DocumentCount returns the number of indexed documents.
func (ix *Index) DocumentCount() int { return len(ix.docs) }

// Documents returns the indexed document records in unspecified order.
func (ix *Index) Documents() []domain.Document {
	out := make([]domain.Document, 0, len(ix.docs))
	for _, d := range ix.docs {
		out = append(out, d)
	}
	return out
}

// Chunks returns the indexed chunks in insertion order.
func (ix *Index) Chunks() []domain.Chunk { return ix.chunks }

// removeLast undoes an AddDocument that could not be persisted.
func (ix *Index) removeLast(contentHash string, n int) {
	ix.chunks = ix.chunks[:len(ix.chunks)-n]
	delete(ix.docs, contentHash)
}

// normalize scales v to unit length in place. Zero vectors stay zero.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// cosineDistance computes 1 - dot over unit vectors, clamped to >= 0
// against float rounding.
func cosineDistance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	d := 1 - dot
	if d < 0 {
		return 0
	}
	return d
}
