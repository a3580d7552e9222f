package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/config"
	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/internal/extract"
	"github.com/hyperjump/lexilaw/internal/indexer"
	"github.com/hyperjump/lexilaw/internal/watcher"
)

// buildTarget is one input directory built into one store directory.
type buildTarget struct {
	Input  string
	Output string
}

// buildTargets returns the explicit input/output pair when given, otherwise the default
// acts and cases stores.
func buildTargets(cfg *config.Config, args []string) ([]buildTarget, error) {
	switch len(args) {
	case 0:
		return []buildTarget{
			{Input: cfg.Paths.DataDir, Output: cfg.Paths.ActsStore},
			{Input: cfg.Paths.CaseDir, Output: cfg.Paths.CasesStore},
		}, nil
	case 2:
		return []buildTarget{{Input: args[0], Output: args[1]}}, nil
	}
	return nil, errors.New("build takes no arguments or an input and an output directory")
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	watch := fs.Bool("watch", false, "rebuild when source files change")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	targets, err := buildTargets(cfg, fs.Args())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signalContext()
	defer stop()

	emb, err := embedding.New(ctx, cfg.Embedding)
	if err != nil {
		fail(logger, "initialize embedder", err)
	}
	defer emb.Close()

	pipeline := indexer.NewPipeline(extract.NewExtractor(extract.WithLogger(logger)), emb,
		indexer.WithLogger(logger),
		indexer.WithBatchSize(cfg.Pipeline.BatchSize),
		indexer.WithChunking(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap),
		indexer.WithExtensions(cfg.Pipeline.Extensions),
	)

	failed := 0
	for _, t := range targets {
		if err := buildOne(ctx, pipeline, t); err != nil {
			failed++
		}
	}
	if !*watch {
		if failed == len(targets) {
			os.Exit(1)
		}
		return
	}

	byOutput := make(map[string]buildTarget, len(targets))
	watchTargets := make([]watcher.Target, 0, len(targets))
	for _, t := range targets {
		byOutput[t.Output] = t
		watchTargets = append(watchTargets, watcher.Target{
			Name:  t.Output,
			Dir:   t.Input,
			Match: watcher.ExtensionMatcher(cfg.Pipeline.Extensions),
		})
	}
	w := watcher.NewWatcher(watchTargets,
		func(ctx context.Context, name string, paths []string) {
			logger.Info("sources changed, rebuilding", zap.String("store", name), zap.Int("files", len(paths)))
			_ = buildOne(ctx, pipeline, byOutput[name])
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond),
	)
	if err := w.Start(ctx); err != nil {
		fail(logger, "start watcher", err)
	}
	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	<-ctx.Done()
	w.Stop()
}

// buildOne builds one store and prints its report. "Nothing to index" outcomes are reported
// but the caller carries on with the next target.
func buildOne(ctx context.Context, pipeline *indexer.Pipeline, t buildTarget) error {
	fmt.Printf("Building %s -> %s\n", t.Input, t.Output)
	report, err := pipeline.BuildTo(ctx, t.Input, t.Output)
	if report != nil {
		printBuildReport(report)
	}
	switch {
	case errors.Is(err, extract.ErrNoDocuments):
		fmt.Printf("No documents found in %s\n", t.Input)
	case errors.Is(err, indexer.ErrNothingIndexed):
		fmt.Printf("Nothing indexed from %s; %s left unchanged\n", t.Input, t.Output)
	case err != nil:
		fmt.Printf("Failed to build %s: %v\n", t.Output, err)
	default:
		fmt.Printf("Saved %d chunks to %s\n", report.Chunks, t.Output)
	}
	return err
}

func printBuildReport(r *indexer.BuildReport) {
	if len(r.Items) == 0 {
		return
	}
	fmt.Printf("  files: %d loaded, %d skipped; batches: %d, %d failed\n",
		r.Loaded(), r.Skipped(), len(r.Batches), r.FailedBatches())
	for _, it := range r.Items {
		if it.Status == indexer.ItemSkipped {
			fmt.Printf("  skipped %s: %s\n", filepath.Base(it.Path), it.Reason)
		}
	}
	for _, b := range r.Batches {
		if b.Status == indexer.BatchFailed {
			fmt.Printf("  batch %d failed: %s\n", b.Number, b.Reason)
		}
	}
}
