package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/docubrain/ragdex/internal/domain"
)

const persistVersion = 1

// persistedIndex is the on-disk gob layout.
type persistedIndex struct {
	Version int
	Dim     int
	Docs    []domain.Document
	Chunks  []domain.Chunk
}

// userIndex pairs an index with its lock. broken marks an index whose
// persisted file failed to load; all operations on it fail closed.
type userIndex struct {
	mu     sync.RWMutex
	ix     *Index
	broken bool
}

// Store manages per-user indexes: lazy loading from disk, locking and
// atomic persistence. Reads on one user's index run concurrently;
// writes are exclusive per user.
type Store struct {
	dir string
	dim int

	mu    sync.Mutex
	users map[string]*userIndex
}

// NewStore creates a store persisting indexes under dir.
func NewStore(dir string, dim int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Store{
		dir:   dir,
		dim:   dim,
		users: make(map[string]*userIndex),
	}, nil
}

// AddDocument inserts a document with its chunks into the user's index
// and persists the index. Returns added=false when content with the
// same hash is already indexed. The in-memory index and the persisted
// file change together or not at all.
func (s *Store) AddDocument(userID string, doc domain.Document, chunks []domain.Chunk) (bool, error) {
	u := s.user(userID)

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.broken {
		return false, fmt.Errorf("index for user %s: %w", userID, domain.ErrIndexCorrupted)
	}
	// Dedup is re-checked under the write lock: a concurrent ingest of
	// the same content may have won the race since the caller's check.
	if u.ix.HasDocument(doc.ContentHash) {
		return false, nil
	}

	if err := u.ix.AddDocument(doc, chunks); err != nil {
		return false, fmt.Errorf("add document: %w", err)
	}
	if err := s.persist(userID, u.ix); err != nil {
		u.ix.removeLast(doc.ContentHash, len(chunks))
		return false, fmt.Errorf("persist index: %w", err)
	}
	return true, nil
}

// HasDocument reports whether the user's index already holds content
// with this hash.
func (s *Store) HasDocument(userID, contentHash string) (bool, error) {
	u := s.user(userID)

	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.broken {
		return false, fmt.Errorf("index for user %s: %w", userID, domain.ErrIndexCorrupted)
	}
	return u.ix.HasDocument(contentHash), nil
}

// Search returns the k nearest chunks in the user's index. A user with
// no index yet gets an empty result, not an error.
func (s *Store) Search(userID string, query []float32, k int) ([]domain.Candidate, error) {
	u := s.user(userID)

	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.broken {
		return nil, fmt.Errorf("index for user %s: %w", userID, domain.ErrIndexCorrupted)
	}
	candidates, err := u.ix.Search(query, k)
	if err != nil {
		return nil, fmt.Errorf("search index for user %s: %w", userID, err)
	}
	return candidates, nil
}

// Stats returns document and chunk counts for the user's index.
func (s *Store) Stats(userID string) (docs, chunks int, err error) {
	u := s.user(userID)

	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.broken {
		return 0, 0, fmt.Errorf("index for user %s: %w", userID, domain.ErrIndexCorrupted)
	}
	return u.ix.DocumentCount(), u.ix.ChunkCount(), nil
}

// Documents lists the document records in the user's index.
func (s *Store) Documents(userID string) ([]domain.Document, error) {
	u := s.user(userID)

	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.broken {
		return nil, fmt.Errorf("index for user %s: %w", userID, domain.ErrIndexCorrupted)
	}
	return u.ix.Documents(), nil
}

// Chunks returns the chunk texts of the user's index in insertion order.
func (s *Store) Chunks(userID string) ([]domain.Chunk, error) {
	u := s.user(userID)

	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.broken {
		return nil, fmt.Errorf("index for user %s: %w", userID, domain.ErrIndexCorrupted)
	}
	return u.ix.Chunks(), nil
}

// user returns the loaded index entry for userID, loading it from disk
// on first touch. A missing file yields a fresh empty index; an
// unreadable or malformed file yields a broken entry that fails closed.
func (s *Store) user(userID string) *userIndex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return u
	}

	u := &userIndex{}
	ix, err := s.load(userID)
	switch {
	case err == nil:
		u.ix = ix
	case errors.Is(err, fs.ErrNotExist):
		u.ix = New(s.dim)
	default:
		u.broken = true
	}
	s.users[userID] = u
	return u
}

func (s *Store) load(userID string) (*Index, error) {
	f, err := os.Open(s.path(userID))
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var p persistedIndex
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode index file: %w", err)
	}
	if p.Version != persistVersion {
		return nil, fmt.Errorf("unsupported index file version %d", p.Version)
	}
	if p.Dim != s.dim {
		return nil, fmt.Errorf("index file dimension %d, store expects %d", p.Dim, s.dim)
	}

	ix := New(s.dim)
	ix.chunks = p.Chunks
	for _, d := range p.Docs {
		ix.docs[d.ContentHash] = d
	}
	return ix, nil
}

// persist writes the index to a temp file and renames it over the
// final path, so readers never observe a half-written index.
func (s *Store) persist(userID string, ix *Index) error {
	p := persistedIndex{
		Version: persistVersion,
		Dim:     s.dim,
		Docs:    ix.Documents(),
		Chunks:  ix.chunks,
	}

	tmp, err := os.CreateTemp(s.dir, "."+safeFileName(userID)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&p); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(userID)); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.dir, safeFileName(userID)+".gob")
}

var safeNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// safeFileName maps a user ID to a filesystem-safe name. IDs that are
// already safe map to themselves; anything else maps to its hash.
func safeFileName(userID string) string {
	if safeNameRegex.MatchString(userID) && userID != "." && userID != ".." {
		return userID
	}
	return "u-" + domain.ContentHash(userID)[:32]
}
