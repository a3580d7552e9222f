package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/analytics"
	"github.com/hyperjump/lexilaw/internal/blob"
	"github.com/hyperjump/lexilaw/internal/cli"
	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/internal/evaluation"
	"github.com/hyperjump/lexilaw/internal/queue"
	"github.com/hyperjump/lexilaw/internal/storage"
)

func runInsights() {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	jsonOut := fs.Bool("json", false, "output JSON")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	log, err := openLogReader(ctx, cfg)
	if err != nil {
		fail(logger, "open interaction log", err)
	}
	defer log.Close()

	ins, err := analytics.Compute(ctx, log)
	if err != nil {
		fail(logger, "compute insights", err)
	}
	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}
	_ = cli.WriteInsights(os.Stdout, ins, format)
}

func printEvaluateUsage() {
	fmt.Println(`Usage: lexilaw evaluate answers|embeddings [flags] <dataset>

answers     dataset columns: expected, generated (csv, json or xlsx)
embeddings  dataset columns: sentence1, sentence2, score (0-5)`)
}

func runEvaluate() {
	if len(os.Args) < 3 {
		printEvaluateUsage()
		os.Exit(1)
	}
	kind := os.Args[2]
	if kind != "answers" && kind != "embeddings" {
		fmt.Printf("Unknown evaluation: %s\n", kind)
		printEvaluateUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet("evaluate "+kind, flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	outDir := fs.String("out", ".", "directory for the report files")
	xlsx := fs.Bool("xlsx", false, "also write an .xlsx report")
	jsonOut := fs.Bool("json", false, "print results as JSON")
	_ = fs.Parse(argsReorder(os.Args[3:]))
	if fs.NArg() != 1 {
		printEvaluateUsage()
		os.Exit(1)
	}
	dataset := fs.Arg(0)

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}
	opts := evaluation.WriteOptions{XLSX: *xlsx}

	var files []string
	switch kind {
	case "answers":
		pairs, err := evaluation.LoadAnswerPairs(dataset)
		if err != nil {
			fail(logger, "load dataset", err)
		}
		rows := evaluation.EvaluateAnswers(pairs)
		if files, err = evaluation.WriteAnswerReport(*outDir, rows, opts); err != nil {
			fail(logger, "write report", err)
		}
		_ = cli.WriteAnswerScores(os.Stdout, rows, format)
	case "embeddings":
		ctx, stop := signalContext()
		defer stop()
		pairs, err := evaluation.LoadSimilarityPairs(dataset)
		if err != nil {
			fail(logger, "load dataset", err)
		}
		emb, err := embedding.New(ctx, cfg.Embedding)
		if err != nil {
			fail(logger, "initialize embedder", err)
		}
		defer emb.Close()
		report, err := evaluation.EvaluateEmbeddings(ctx, emb, pairs)
		if err != nil {
			fail(logger, "evaluate embeddings", err)
		}
		if files, err = evaluation.WriteEmbeddingReport(*outDir, report, opts); err != nil {
			fail(logger, "write report", err)
		}
		_ = cli.WriteSimilarityScores(os.Stdout, report, format)
	}
	if format == cli.OutputText {
		for _, f := range files {
			fmt.Printf("Wrote %s\n", f)
		}
	}
}

func runPublish() {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	bucket, err := blob.Open(ctx, cfg.Publish)
	if err != nil {
		fail(logger, "open bucket", err)
	}
	dirs := storeDirs(cfg)
	names := make([]string, 0, len(dirs))
	for name := range dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	published := 0
	for _, name := range names {
		dir := dirs[name]
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Printf("Skipping %s: %s does not exist\n", name, dir)
			continue
		}
		keys, err := blob.Publish(ctx, bucket, dir, blob.Key(cfg.Publish.Prefix, name))
		if err != nil {
			fail(logger, "publish "+name, err)
		}
		logger.Info("store published", zap.String("store", name), zap.Int("objects", len(keys)))
		fmt.Printf("Published %s (%d objects)\n", name, len(keys))
		published++
	}
	if published == 0 {
		fmt.Println("Nothing to publish; run `lexilaw build` first")
		os.Exit(1)
	}
}

func runLogWorker() {
	fs := flag.NewFlagSet("log-worker", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	conn, err := queue.Dial(ctx, cfg.Log.AMQPURL)
	if err != nil {
		fail(logger, "connect to queue", err)
	}
	defer conn.Close()

	sink, err := storage.Open(ctx, logOptions(cfg.Log.WorkerDriver, cfg.Log.WorkerDSN, cfg))
	if err != nil {
		fail(logger, "open interaction store", err)
	}
	defer sink.Close()

	worker := queue.NewPersistWorker(conn, sink, cfg.Log.Queue, queue.WithLogger(logger))
	if err := worker.Start(ctx); err != nil {
		fail(logger, "start worker", err)
	}
	logger.Info("log worker running", zap.String("queue", cfg.Log.Queue), zap.String("store", cfg.Log.WorkerDriver))
	<-ctx.Done()
	worker.Close()
}
