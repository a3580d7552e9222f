package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/lexilaw/internal/fileid"
	"github.com/hyperjump/lexilaw/internal/models"
)

// Indexed field names.
const (
	fieldFilename = "filename"
	fieldTitle    = "title"
	fieldCourt    = "court"
	fieldYear     = "year"
	fieldIssues   = "issues"
	fieldSummary  = "summary"
)

var textFields = []string{fieldTitle, fieldCourt, fieldIssues, fieldSummary}

// CaseIndex is a Bleve index over case metadata.
type CaseIndex struct {
	index bleve.Index
}

func caseMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so statute names and party
	// names match exactly as written.
	text.Analyzer = standard.Name
	for _, f := range textFields {
		doc.AddFieldMappingsAt(f, text)
	}
	kw := bleve.NewKeywordFieldMapping()
	doc.AddFieldMappingsAt(fieldFilename, kw)
	doc.AddFieldMappingsAt(fieldYear, kw)

	im.AddDocumentMapping("case", doc)
	im.DefaultType = "case"
	im.DefaultMapping = doc
	return im
}

// OpenCaseIndex creates or opens the index at path. An empty path creates an in-memory index.
// If you change the mapping, remove the index directory; the next Rebuild repopulates it.
func OpenCaseIndex(path string) (*CaseIndex, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(caseMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &CaseIndex{index: idx}, nil
	}
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &CaseIndex{index: idx}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	idx, err := bleve.New(path, caseMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &CaseIndex{index: idx}, nil
}

func toDoc(m models.CaseMetadata) map[string]interface{} {
	return map[string]interface{}{
		fieldFilename: m.Filename,
		// underscores as spaces so "tata mistry" matches "Tata_vs_Mistry"
		fieldTitle:   strings.ReplaceAll(m.Title, "_", " "),
		fieldCourt:   m.Court,
		fieldYear:    m.Year,
		fieldIssues:  strings.Join(m.Issues, ", "),
		fieldSummary: m.Summary,
	}
}

// Index adds or replaces one case.
func (c *CaseIndex) Index(ctx context.Context, m models.CaseMetadata) error {
	return c.index.Index(fileid.CaseDocID(m.Filename), toDoc(m))
}

// Rebuild makes the index contain exactly cases, removing cases no longer present.
func (c *CaseIndex) Rebuild(ctx context.Context, cases []models.CaseMetadata) error {
	existing, err := c.allIDs()
	if err != nil {
		return err
	}
	batch := c.index.NewBatch()
	keep := make(map[string]bool, len(cases))
	for _, m := range cases {
		id := fileid.CaseDocID(m.Filename)
		keep[id] = true
		if err := batch.Index(id, toDoc(m)); err != nil {
			return fmt.Errorf("index case %s: %w", m.Filename, err)
		}
	}
	for _, id := range existing {
		if !keep[id] {
			batch.Delete(id)
		}
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

func (c *CaseIndex) allIDs() ([]string, error) {
	count, err := c.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get doc count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	res, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	ids := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}
	return ids, nil
}

// Search returns up to limit cases matching query, best first. Title and issue matches are
// boosted over court and summary matches.
func (c *CaseIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	o := opts.withDefaults()
	terms := tokenizeQuery(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	boosts := map[string]float64{
		fieldTitle:   o.TitleBoost,
		fieldIssues:  o.IssueBoost,
		fieldCourt:   1,
		fieldSummary: 1,
	}
	var perField []blevequery.Query
	for _, f := range textFields {
		perField = append(perField, fieldQuery(query, terms, f, boosts[f], o))
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(perField...))
	req.Size = limit
	req.Fields = []string{fieldFilename}
	results, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		name, _ := h.Fields[fieldFilename].(string)
		out = append(out, Hit{Filename: name, Score: h.Score})
	}
	return out, nil
}

// fieldQuery matches query against one field: a match query, or one fuzzy query per term.
func fieldQuery(query string, terms []string, field string, boost float64, o SearchOptions) blevequery.Query {
	if !o.FuzzyEnabled {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		mq.SetBoost(boost)
		return mq
	}
	qs := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(o.Fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		qs = append(qs, fq)
	}
	return bleve.NewDisjunctionQuery(qs...)
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '_'
	})
}

// DocCount returns the number of indexed cases.
func (c *CaseIndex) DocCount() (uint64, error) {
	return c.index.DocCount()
}

// Close closes the Bleve index.
func (c *CaseIndex) Close() error {
	return c.index.Close()
}
