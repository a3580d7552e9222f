// Package extract provides directory scanning and page-level text extraction for source documents.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrNoDocuments is returned when a directory holds no files with a recognized extension.
var ErrNoDocuments = errors.New("no documents found")

// DefaultExtensions are the file types picked up when no extensions are configured.
var DefaultExtensions = []string{".pdf"}

// Supported reports whether ext (with leading dot, any case) can be extracted.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// ScanDir returns the sorted paths of regular files directly under dir whose extension
// matches one of exts (case-insensitive). Returns ErrNoDocuments if none match.
func ScanDir(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if want[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Extractor extracts plain text from document files.
type Extractor struct {
	logger *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used to report unreadable pages.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractPages reads the file at path and returns its page texts in order.
// At most maxPages pages are read; maxPages <= 0 means all pages. A page that cannot be
// decoded yields "" instead of failing the document. Plain text files are a single page.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) ExtractPages(path string, maxPages int) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return e.pdfPages(content, maxPages)
	case ".txt", ".md":
		return []string{extractPlain(content)}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// Extract returns the text of all pages of the file at path joined with "\n".
func (e *Extractor) Extract(path string) (string, error) {
	pages, err := e.ExtractPages(path, 0)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

// Empty reports whether every page is blank.
func Empty(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
