package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hyperjump/lexilaw/internal/rag"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps sessions in process. Entries expire ttl after their last Save;
// expired entries are swept from memory by Save at most once per ttl.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryStore returns an in-memory store. ttl <= 0 means sessions never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Create(ctx context.Context) (*rag.Session, error) {
	sess := rag.NewSession("")
	if err := m.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*rag.Session, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if ok && m.expired(e) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	// stored encoded so callers never share history slices
	var sess rag.Session
	if err := json.Unmarshal(e.data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (m *MemoryStore) Save(_ context.Context, sess *rag.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	now := m.now()
	e := memoryEntry{data: data}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl > 0 && !now.Before(m.nextSweep) {
		m.sweep()
		m.nextSweep = now.Add(m.ttl)
	}
	m.entries[sess.ID] = e
	return nil
}

// sweep drops expired entries. Callers hold m.mu.
func (m *MemoryStore) sweep() {
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
		}
	}
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && m.now().After(e.expires)
}
