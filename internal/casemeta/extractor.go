package casemeta

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/extract"
	"github.com/hyperjump/lexilaw/internal/llm"
	"github.com/hyperjump/lexilaw/internal/models"
)

// DefaultMaxPages is how many leading pages of each case are sent to the model.
const DefaultMaxPages = 2

const promptTemplate = `Analyze this case text and extract:
1. Main legal issues (as keywords)
2. A short summary (2-3 lines)

Respond with a JSON object {"issues": [keywords], "summary": text}.

Case text:
%s`

var responseSchema = &llm.Schema{
	Type: "object",
	Properties: map[string]*llm.Schema{
		"issues":  {Type: "array", Items: &llm.Schema{Type: "string"}, Description: "main legal issues as short keywords"},
		"summary": {Type: "string", Description: "2-3 line summary of the case"},
	},
	Required: []string{"issues", "summary"},
}

// ItemStatus is the outcome for one case document.
type ItemStatus string

const (
	ItemProcessed ItemStatus = "processed"
	ItemSkipped   ItemStatus = "skipped"
)

// ItemResult reports what happened to one case document.
type ItemResult struct {
	Filename string     `json:"filename"`
	Status   ItemStatus `json:"status"`
	Reason   string     `json:"reason,omitempty"`
}

// RunReport is the outcome of a metadata extraction run.
type RunReport struct {
	Cases []models.CaseMetadata `json:"cases"`
	Items []ItemResult          `json:"items"`
}

// Skipped returns the number of documents omitted from the collection.
func (r *RunReport) Skipped() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == ItemSkipped {
			n++
		}
	}
	return n
}

// PageReader reads the leading pages of a document.
type PageReader interface {
	ExtractPages(path string, maxPages int) ([]string, error)
}

// Extractor derives CaseMetadata for each case PDF using a generation model.
type Extractor struct {
	extractor PageReader
	gen       llm.Generator
	maxPages  int
	logger    *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithMaxPages sets how many leading pages are read from each document.
func WithMaxPages(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxPages = n
		}
	}
}

// NewExtractor creates a metadata extractor.
func NewExtractor(extractor PageReader, gen llm.Generator, opts ...Option) *Extractor {
	e := &Extractor{extractor: extractor, gen: gen, maxPages: DefaultMaxPages, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes every PDF in dir in filename order. Documents that cannot be read or whose
// model call fails are recorded as skipped and omitted from the returned collection.
// Returns extract.ErrNoDocuments when dir has no PDFs.
func (e *Extractor) Run(ctx context.Context, dir string) (*RunReport, error) {
	paths, err := extract.ScanDir(dir, []string{".pdf"})
	if err != nil {
		return nil, err
	}
	report := &RunReport{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := filepath.Base(path)
		meta, err := e.Describe(ctx, path)
		if err != nil {
			report.Items = append(report.Items, ItemResult{Filename: name, Status: ItemSkipped, Reason: err.Error()})
			e.logger.Warn("skipping case", zap.String("file", name), zap.Error(err))
			continue
		}
		report.Cases = append(report.Cases, *meta)
		report.Items = append(report.Items, ItemResult{Filename: name, Status: ItemProcessed})
		e.logger.Info("case processed", zap.String("file", name), zap.Int("issues", len(meta.Issues)))
	}
	return report, nil
}

// Describe builds the metadata for a single case document.
func (e *Extractor) Describe(ctx context.Context, path string) (*models.CaseMetadata, error) {
	pages, err := e.extractor.ExtractPages(path, e.maxPages)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	req := llm.Prompt(fmt.Sprintf(promptTemplate, strings.Join(pages, " ")))
	req.ResponseSchema = responseSchema
	reply, err := e.gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate metadata: %w", err)
	}
	issues, summary := ParseResponse(reply)
	if issues == nil {
		issues = []string{}
	}
	name := filepath.Base(path)
	f := ParseFilename(name)
	return &models.CaseMetadata{
		Filename: name,
		Court:    f.Court,
		Year:     f.Year,
		Title:    f.Title,
		Issues:   issues,
		Summary:  summary,
	}, nil
}
