package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/internal/models"
)

// File names inside a store directory.
const (
	IndexFile    = "index.bin"
	DocstoreFile = "docstore.json"
)

// ErrStoreNotFound is returned by Load when the store directory or its files do not exist.
var ErrStoreNotFound = errors.New("vector store not found")

// Hit is a retrieved chunk with its similarity score.
type Hit struct {
	Chunk models.Chunk
	Score float64
}

// Store is a named collection of chunks and their embeddings supporting k-nearest-neighbor search.
type Store struct {
	index *MemoryIndex
	mu    sync.RWMutex
	docs  map[string]models.Chunk
}

// NewStore returns an empty store for vectors of the given dimension.
func NewStore(dimensions int) (*Store, error) {
	idx, err := NewMemoryIndex(dimensions)
	if err != nil {
		return nil, err
	}
	return &Store{index: idx, docs: make(map[string]models.Chunk)}, nil
}

// Embed builds a store from chunks with a single batch embedding call.
func Embed(ctx context.Context, emb embedding.Embedder, chunks []models.Chunk) (*Store, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to embed")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vecs), len(chunks))
	}
	s, err := NewStore(len(vecs[0]))
	if err != nil {
		return nil, err
	}
	if _, err := s.Add(chunks, vecs); err != nil {
		return nil, err
	}
	return s, nil
}

// Add stores chunks with their vectors. Chunks whose ID is already present are ignored.
// Returns the number of chunks added.
func (s *Store) Add(chunks []models.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunks and vectors length mismatch")
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			return 0, fmt.Errorf("chunk %d has no id", i)
		}
		ids[i] = c.ID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := make([]int, 0, len(chunks))
	for i, id := range ids {
		if !s.index.Has(id) {
			fresh = append(fresh, i)
		}
	}
	added, err := s.index.Add(ids, vectors)
	if err != nil {
		return 0, err
	}
	for _, i := range fresh {
		if _, ok := s.docs[ids[i]]; !ok {
			s.docs[ids[i]] = chunks[i]
		}
	}
	return added, nil
}

// Merge copies every chunk of other into s. Chunks already present are not duplicated.
// Returns the number of chunks added.
func (s *Store) Merge(other *Store) (int, error) {
	if other == nil {
		return 0, nil
	}
	if other.Dimensions() != s.Dimensions() {
		return 0, fmt.Errorf("merge: dimension mismatch %d vs %d", other.Dimensions(), s.Dimensions())
	}
	other.mu.RLock()
	var chunks []models.Chunk
	var vecs [][]float32
	other.index.Each(func(id string, vec []float32) {
		chunks = append(chunks, other.docs[id])
		vecs = append(vecs, vec)
	})
	other.mu.RUnlock()
	return s.Add(chunks, vecs)
}

// Search returns the k chunks nearest to query, best first.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Chunk: s.docs[r.ID], Score: r.Score})
	}
	return hits, nil
}

// SearchText embeds text with emb and returns the k nearest chunks.
func (s *Store) SearchText(ctx context.Context, emb embedding.Embedder, text string, k int) ([]Hit, error) {
	q, err := emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.Search(ctx, q, k)
}

// Len returns the number of chunks in the store.
func (s *Store) Len() int {
	return s.index.Size()
}

// Dimensions returns the vector dimension.
func (s *Store) Dimensions() int {
	return s.index.Dimensions()
}

// Sources returns the distinct chunk sources in the store.
func (s *Store) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	s.index.Each(func(id string, _ []float32) {
		src := s.docs[id].Metadata.Source
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	})
	return out
}

type docEntry struct {
	Text     string               `json:"text"`
	Metadata models.ChunkMetadata `json:"metadata"`
}

// Save writes the store to dir, replacing any previous contents. Files are written to a
// sibling temporary directory first so a failed save leaves the old store intact.
func (s *Store) Save(dir string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create store parent: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return fmt.Errorf("create temp store dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := s.writeFiles(tmp); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove old store: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("move store into place: %w", err)
	}
	return nil
}

func (s *Store) writeFiles(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Create(filepath.Join(dir, IndexFile))
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if _, err := s.index.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}

	docs := make(map[string]docEntry, len(s.docs))
	for id, c := range s.docs {
		docs[id] = docEntry{Text: c.Text, Metadata: c.Metadata}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal docstore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DocstoreFile), data, 0644); err != nil {
		return fmt.Errorf("write docstore: %w", err)
	}
	return nil
}

// Load reads a store saved by Save. Returns ErrStoreNotFound when dir has no store.
func Load(dir string) (*Store, error) {
	idx, err := loadIndexFile(filepath.Join(dir, IndexFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, dir)
		}
		return nil, fmt.Errorf("load index: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, DocstoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, dir)
		}
		return nil, fmt.Errorf("read docstore: %w", err)
	}
	var entries map[string]docEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse docstore: %w", err)
	}
	s := &Store{index: idx, docs: make(map[string]models.Chunk, len(entries))}
	var missing int
	idx.Each(func(id string, _ []float32) {
		e, ok := entries[id]
		if !ok {
			missing++
			return
		}
		s.docs[id] = models.Chunk{ID: id, Text: e.Text, Metadata: e.Metadata}
	})
	if missing > 0 {
		return nil, fmt.Errorf("docstore is missing %d indexed chunks", missing)
	}
	return s, nil
}
