// Package vector provides the persisted nearest-neighbor store used for retrieval.
package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"
)

// Result is a single nearest-neighbor hit.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity for normalized vectors
}

// MemoryIndex is an in-memory vector index using brute-force inner product search.
// IDs are unique: adding an ID that is already present is a no-op.
type MemoryIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	pos        map[string]int
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		pos:        make(map[string]int),
	}, nil
}

// Add appends vectors with the given IDs and returns how many were new.
// All vectors are validated before any is added.
func (m *MemoryIndex) Add(ids []string, vectors [][]float32) (int, error) {
	if len(ids) != len(vectors) {
		return 0, fmt.Errorf("ids and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != m.dimensions {
			return 0, fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
	for i, id := range ids {
		if _, ok := m.pos[id]; ok {
			continue
		}
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.pos[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
		added++
	}
	return added, nil
}

// Has reports whether id is in the index.
func (m *MemoryIndex) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pos[id]
	return ok
}

// Search returns the top-k vectors by inner product. Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	scores := make([]Result, len(m.ids))
	for i, vec := range m.vectors {
		var dot float64
		for j := 0; j < m.dimensions; j++ {
			dot += float64(query[j]) * float64(vec[j])
		}
		scores[i] = Result{ID: m.ids[i], Score: dot}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Each calls fn for every entry in insertion order.
func (m *MemoryIndex) Each(fn func(id string, vec []float32)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, id := range m.ids {
		fn(id, m.vectors[i])
	}
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// WriteTo writes the index in its binary format: dimension (4), n (4), then per vector:
// idLen (4), id bytes, vector (dimension*4 bytes), all little-endian.
func (m *MemoryIndex) WriteTo(w io.Writer) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}
	if err := binary.Write(cw, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return cw.n, fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(cw, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return cw.n, fmt.Errorf("write count: %w", err)
	}
	for i, id := range m.ids {
		if err := binary.Write(cw, binary.LittleEndian, uint32(len(id))); err != nil {
			return cw.n, fmt.Errorf("write id len: %w", err)
		}
		if _, err := io.WriteString(cw, id); err != nil {
			return cw.n, fmt.Errorf("write id: %w", err)
		}
		if _, err := cw.Write(float32SliceToBytes(m.vectors[i])); err != nil {
			return cw.n, fmt.Errorf("write vector: %w", err)
		}
	}
	return cw.n, bw.Flush()
}

// Limits applied when reading an index so a corrupt header fails instead of allocating.
const (
	maxIndexDimensions = 1 << 16
	maxIDLength        = 1 << 12
	maxPrealloc        = 1 << 16
)

// ReadIndex reads an index written by WriteTo.
func ReadIndex(r io.Reader) (*MemoryIndex, error) {
	return readIndex(r, -1)
}

// readIndex reads an index from r. When size is not negative it is the total byte length
// of r and the header's record count is checked against it before anything is allocated.
func readIndex(r io.Reader, size int64) (*MemoryIndex, error) {
	br := bufio.NewReader(r)
	var dim, n uint32
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	if dim > maxIndexDimensions {
		return nil, fmt.Errorf("corrupt index: dimensions %d exceed %d", dim, maxIndexDimensions)
	}
	if size >= 0 {
		// each record holds at least its id length and its vector
		minRecord := 4 + uint64(dim)*4
		if remaining := size - 8; remaining < 0 || uint64(n)*minRecord > uint64(remaining) {
			return nil, fmt.Errorf("corrupt index: %d records of dimension %d do not fit in %d bytes", n, dim, size)
		}
	}
	m, err := NewMemoryIndex(int(dim))
	if err != nil {
		return nil, err
	}
	prealloc := n
	if prealloc > maxPrealloc {
		prealloc = maxPrealloc
	}
	m.ids = make([]string, 0, prealloc)
	m.vectors = make([][]float32, 0, prealloc)
	buf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(br, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("read id len: %w", err)
		}
		if idLen > maxIDLength {
			return nil, fmt.Errorf("corrupt index: id length %d at record %d", idLen, i)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(br, idBytes); err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		id := string(idBytes)
		m.pos[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, bytesToFloat32Slice(buf))
	}
	return m, nil
}

// loadIndexFile reads the index file at path.
func loadIndexFile(path string) (*MemoryIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return readIndex(f, info.Size())
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
