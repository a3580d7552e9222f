package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/casemeta"
	"github.com/hyperjump/lexilaw/internal/cli"
	"github.com/hyperjump/lexilaw/internal/config"
	"github.com/hyperjump/lexilaw/internal/extract"
	"github.com/hyperjump/lexilaw/internal/keyword"
	"github.com/hyperjump/lexilaw/internal/llm"
)

func runMetadata() {
	fs := flag.NewFlagSet("metadata", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	dir := fs.String("dir", "", "case PDF directory (default: paths.case_dir)")
	out := fs.String("out", "", "metadata output file (default: paths.metadata_file)")
	maxPages := fs.Int("max-pages", 0, "pages read per case (default: metadata.max_pages)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *dir == "" {
		*dir = cfg.Paths.CaseDir
	}
	if *out == "" {
		*out = cfg.Paths.MetadataFile
	}
	if *maxPages == 0 {
		*maxPages = cfg.Metadata.MaxPages
	}

	ctx, stop := signalContext()
	defer stop()

	gen, err := llm.New(ctx, cfg.Generation)
	if err != nil {
		fail(logger, "initialize generator", err)
	}
	defer gen.Close()

	ex := casemeta.NewExtractor(extract.NewExtractor(extract.WithLogger(logger)), gen,
		casemeta.WithLogger(logger),
		casemeta.WithMaxPages(*maxPages),
	)
	report, err := ex.Run(ctx, *dir)
	if err != nil {
		fail(logger, "extract case metadata", err)
	}
	if err := casemeta.Save(*out, report.Cases); err != nil {
		fail(logger, "save case metadata", err)
	}
	for _, it := range report.Items {
		if it.Status == casemeta.ItemSkipped {
			fmt.Printf("skipped %s: %s\n", it.Filename, it.Reason)
		}
	}
	fmt.Printf("Extracted metadata for %d cases (%d skipped) to %s\n", len(report.Cases), report.Skipped(), *out)
}

func runCases() {
	fs := flag.NewFlagSet("cases", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	issue := fs.String("issue", "", "only cases tagged with this issue")
	search := fs.String("search", "", "fuzzy search over titles, courts, issues and summaries")
	issues := fs.Bool("issues", false, "list issue keywords instead of cases")
	jsonOut := fs.Bool("json", false, "output JSON")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	lib, closeLib, err := openLibrary(cfg, logger, *search != "")
	if err != nil {
		fail(logger, "open case library", err)
	}
	defer closeLib()
	if err := lib.Reload(ctx); err != nil {
		fail(logger, "load case metadata", err)
	}

	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}
	if *issues {
		for _, i := range lib.Catalog().Issues() {
			fmt.Println(i)
		}
		return
	}
	cases, err := lib.Search(ctx, *search, *issue)
	if err != nil {
		fail(logger, "search cases", err)
	}
	_ = cli.WriteCases(os.Stdout, cases, format)
}

// openLibrary returns the case library, with the on-disk keyword index attached when
// withIndex is set.
func openLibrary(cfg *config.Config, logger *zap.Logger, withIndex bool) (*casemeta.Library, func(), error) {
	opts := []casemeta.LibraryOption{casemeta.WithLibraryLogger(logger)}
	closer := func() {}
	if withIndex {
		idx, err := keyword.OpenCaseIndex(cfg.Paths.CaseIndex)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, casemeta.WithIndex(idx))
		closer = func() { _ = idx.Close() }
	}
	return casemeta.NewLibrary(cfg.Paths.MetadataFile, opts...), closer, nil
}
