package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/internal/extract"
	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/vector"
)

// ErrNothingIndexed is returned when every batch of a build failed.
var ErrNothingIndexed = errors.New("no usable documents found, nothing was indexed")

// DefaultBatchSize is the number of files embedded per batch.
const DefaultBatchSize = 20

// Pipeline builds a vector store from a directory of documents in fixed-size batches.
// A batch whose embedding fails is discarded without stopping the build.
type Pipeline struct {
	extractor  *extract.Extractor
	embedder   embedding.Embedder
	chunker    *Chunker
	batchSize  int
	extensions []string
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for per-file and per-batch events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithBatchSize sets the number of files per batch.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithChunking sets the chunk window and overlap in words.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) { p.chunker = NewChunker(size, overlap) }
}

// WithExtensions sets the file extensions picked up from the input directory.
func WithExtensions(exts []string) Option {
	return func(p *Pipeline) { p.extensions = exts }
}

// NewPipeline creates a pipeline. Defaults: 20 files per batch, 512/50 word chunks, PDFs only.
func NewPipeline(extractor *extract.Extractor, embedder embedding.Embedder, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		embedder:   embedder,
		chunker:    NewChunker(512, 50),
		batchSize:  DefaultBatchSize,
		extensions: extract.DefaultExtensions,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build scans inputDir and returns the merged store of every batch that embedded successfully.
// Returns extract.ErrNoDocuments when the directory has no documents and ErrNothingIndexed
// (with report.Aborted set) when no batch succeeded. The report is returned in both cases.
func (p *Pipeline) Build(ctx context.Context, inputDir string) (*BuildReport, *vector.Store, error) {
	report := &BuildReport{InputDir: inputDir}
	paths, err := extract.ScanDir(inputDir, p.extensions)
	if err != nil {
		return report, nil, err
	}
	p.logger.Info("building vector store", zap.String("dir", inputDir), zap.Int("files", len(paths)), zap.Int("batch_size", p.batchSize))

	var merged *vector.Store
	for start, number := 0, 1; start < len(paths); start, number = start+p.batchSize, number+1 {
		if err := ctx.Err(); err != nil {
			return report, nil, err
		}
		end := start + p.batchSize
		if end > len(paths) {
			end = len(paths)
		}
		batch, partial := p.runBatch(ctx, number, paths[start:end], report)
		report.Batches = append(report.Batches, batch)
		if partial == nil {
			continue
		}
		if merged == nil {
			merged = partial
			continue
		}
		if _, err := merged.Merge(partial); err != nil {
			return report, nil, fmt.Errorf("merge batch %d: %w", number, err)
		}
	}

	if merged == nil {
		report.Aborted = true
		p.logger.Warn("no batch was indexed", zap.String("dir", inputDir), zap.Int("skipped", report.Skipped()))
		return report, nil, ErrNothingIndexed
	}
	report.Chunks = merged.Len()
	p.logger.Info("vector store built",
		zap.String("dir", inputDir),
		zap.Int("loaded", report.Loaded()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed_batches", report.FailedBatches()),
		zap.Int("chunks", report.Chunks),
	)
	return report, merged, nil
}

// BuildTo runs Build and saves the store to outputDir, replacing its previous contents.
// Nothing is written when Build fails.
func (p *Pipeline) BuildTo(ctx context.Context, inputDir, outputDir string) (*BuildReport, error) {
	report, store, err := p.Build(ctx, inputDir)
	if err != nil {
		return report, err
	}
	if err := store.Save(outputDir); err != nil {
		return report, fmt.Errorf("save store: %w", err)
	}
	p.logger.Info("vector store saved", zap.String("path", outputDir))
	return report, nil
}

func (p *Pipeline) runBatch(ctx context.Context, number int, paths []string, report *BuildReport) (BatchResult, *vector.Store) {
	result := BatchResult{Number: number, Files: paths}
	var chunks []models.Chunk
	for _, path := range paths {
		item := p.loadFile(path)
		report.Items = append(report.Items, item.ItemResult)
		chunks = append(chunks, item.chunks...)
	}
	if len(chunks) == 0 {
		result.Status = BatchFailed
		result.Reason = "no usable documents in batch"
		p.logger.Warn("batch has no usable documents", zap.Int("batch", number))
		return result, nil
	}

	store, err := vector.Embed(ctx, p.embedder, chunks)
	if err != nil {
		result.Status = BatchFailed
		result.Reason = err.Error()
		p.logger.Error("batch embedding failed", zap.Int("batch", number), zap.Int("chunks", len(chunks)), zap.Error(err))
		return result, nil
	}
	result.Status = BatchIndexed
	result.Chunks = store.Len()
	p.logger.Info("batch indexed", zap.Int("batch", number), zap.Int("files", len(paths)), zap.Int("chunks", result.Chunks))
	return result, store
}

type loadedFile struct {
	ItemResult
	chunks []models.Chunk
}

func (p *Pipeline) loadFile(path string) loadedFile {
	item := loadedFile{ItemResult: ItemResult{Path: path}}
	pages, err := p.extractor.ExtractPages(path, 0)
	if err != nil {
		item.Status = ItemSkipped
		item.Reason = err.Error()
		p.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
		return item
	}
	item.Pages = len(pages)
	if extract.Empty(pages) {
		item.Status = ItemSkipped
		item.Reason = "no extractable text"
		p.logger.Warn("skipping file with no text", zap.String("path", path))
		return item
	}
	source := filepath.Base(path)
	for i, page := range pages {
		item.chunks = append(item.chunks, p.chunker.Chunk(source, i+1, Preprocess(page))...)
	}
	item.Status = ItemLoaded
	item.Chunks = len(item.chunks)
	p.logger.Debug("loaded file", zap.String("path", path), zap.Int("pages", item.Pages), zap.Int("chunks", item.Chunks))
	return item
}
