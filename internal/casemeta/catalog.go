package casemeta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hyperjump/lexilaw/internal/models"
)

// AllIssues selects every case in Filter.
const AllIssues = "All"

// Save writes cases to path as a JSON array sorted by filename.
func Save(path string, cases []models.CaseMetadata) error {
	sorted := make([]models.CaseMetadata, len(cases))
	copy(sorted, cases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal case metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write case metadata: %w", err)
	}
	return nil
}

// Catalog is the loaded case metadata collection.
type Catalog struct {
	cases []models.CaseMetadata
	index map[string]int
}

// NewCatalog builds a catalog over cases, ordered by filename.
func NewCatalog(cases []models.CaseMetadata) *Catalog {
	c := &Catalog{cases: make([]models.CaseMetadata, len(cases)), index: make(map[string]int, len(cases))}
	copy(c.cases, cases)
	sort.SliceStable(c.cases, func(i, j int) bool { return c.cases[i].Filename < c.cases[j].Filename })
	for i, m := range c.cases {
		c.index[m.Filename] = i
	}
	return c
}

// Load reads the metadata file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case metadata: %w", err)
	}
	var cases []models.CaseMetadata
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse case metadata: %w", err)
	}
	return NewCatalog(cases), nil
}

// Cases returns every case in filename order.
func (c *Catalog) Cases() []models.CaseMetadata {
	out := make([]models.CaseMetadata, len(c.cases))
	copy(out, c.cases)
	return out
}

// Len returns the number of cases.
func (c *Catalog) Len() int {
	return len(c.cases)
}

// Issues returns the sorted set of distinct issue keywords.
func (c *Catalog) Issues() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range c.cases {
		for _, issue := range m.Issues {
			if !seen[issue] {
				seen[issue] = true
				out = append(out, issue)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Filter returns the cases tagged with issue. "" or AllIssues returns every case.
func (c *Catalog) Filter(issue string) []models.CaseMetadata {
	if issue == "" || issue == AllIssues {
		return c.Cases()
	}
	var out []models.CaseMetadata
	for _, m := range c.cases {
		if m.HasIssue(issue) {
			out = append(out, m)
		}
	}
	return out
}

// Find returns the case with the given filename.
func (c *Catalog) Find(filename string) (models.CaseMetadata, bool) {
	i, ok := c.index[filename]
	if !ok {
		return models.CaseMetadata{}, false
	}
	return c.cases[i], true
}
