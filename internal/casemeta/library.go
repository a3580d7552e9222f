package casemeta

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/keyword"
	"github.com/hyperjump/lexilaw/internal/models"
)

const searchLimit = 50

// Library serves case lookups from the metadata file, with full-text search when an
// index is attached. Reload swaps in a fresh catalog atomically.
type Library struct {
	path   string
	index  *keyword.CaseIndex
	logger *zap.Logger

	mu      sync.RWMutex
	catalog *Catalog
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLibraryLogger sets the logger.
func WithLibraryLogger(l *zap.Logger) LibraryOption {
	return func(lib *Library) { lib.logger = l }
}

// WithIndex attaches a full-text index used by Search.
func WithIndex(idx *keyword.CaseIndex) LibraryOption {
	return func(lib *Library) { lib.index = idx }
}

// NewLibrary returns an empty library over the metadata file at path. Call Reload to load it.
func NewLibrary(path string, opts ...LibraryOption) *Library {
	lib := &Library{path: path, catalog: NewCatalog(nil), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// Reload reads the metadata file and rebuilds the index. A missing file yields an empty
// catalog.
func (l *Library) Reload(ctx context.Context) error {
	catalog, err := Load(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		l.logger.Warn("Case metadata file not found; run the metadata command first", zap.String("path", l.path))
		catalog = NewCatalog(nil)
	}
	if l.index != nil {
		if err := l.index.Rebuild(ctx, catalog.Cases()); err != nil {
			return err
		}
	}
	l.mu.Lock()
	l.catalog = catalog
	l.mu.Unlock()
	l.logger.Info("Loaded case metadata", zap.Int("cases", catalog.Len()))
	return nil
}

// Catalog returns the current catalog.
func (l *Library) Catalog() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.catalog
}

// Search returns cases matching query and tagged with issue. An empty query lists the
// issue filter in filename order; otherwise results are ranked best first.
func (l *Library) Search(ctx context.Context, query, issue string) ([]models.CaseMetadata, error) {
	catalog := l.Catalog()
	query = strings.TrimSpace(query)
	if query == "" {
		return catalog.Filter(issue), nil
	}

	var matches []models.CaseMetadata
	if l.index != nil {
		hits, err := l.index.Search(ctx, query, searchLimit, &keyword.SearchOptions{FuzzyEnabled: true})
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if m, ok := catalog.Find(h.Filename); ok {
				matches = append(matches, m)
			}
		}
	} else {
		q := strings.ToLower(query)
		for _, m := range catalog.Cases() {
			if strings.Contains(strings.ToLower(m.DisplayTitle()+" "+m.Summary), q) {
				matches = append(matches, m)
			}
		}
	}
	if issue == "" || issue == AllIssues {
		return matches, nil
	}
	out := matches[:0]
	for _, m := range matches {
		if m.HasIssue(issue) {
			out = append(out, m)
		}
	}
	return out, nil
}
