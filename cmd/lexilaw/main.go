// Package main is the LexiLaw CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/config"
	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/internal/extract"
	"github.com/hyperjump/lexilaw/internal/llm"
	"github.com/hyperjump/lexilaw/internal/queue"
	"github.com/hyperjump/lexilaw/internal/rag"
	"github.com/hyperjump/lexilaw/internal/storage"
	"github.com/hyperjump/lexilaw/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/lexilaw/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory is preferred if present; when neither exists the built-in defaults are used with
// paths relative to the current directory.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		fallback := filepath.Join(cwd, "config.yaml")
		if _, statErr := os.Stat(fallback); statErr == nil {
			cfg, loadErr := config.Load(fallback)
			if loadErr != nil {
				return nil, "", loadErr
			}
			return cfg, fallback, nil
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(cwd), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	_ = config.LoadDotEnv()
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "build":
		runBuild()
	case "metadata":
		runMetadata()
	case "cases":
		runCases()
	case "chat":
		runChat()
	case "ask":
		runAsk()
	case "serve", "server":
		runServe()
	case "insights":
		runInsights()
	case "evaluate":
		runEvaluate()
	case "publish":
		runPublish()
	case "log-worker":
		runLogWorker()
	case "version", "--version", "-v":
		fmt.Printf("lexilaw version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags registers the flags every subcommand accepts.
func commonFlags(fs *flag.FlagSet) (configPath *string, debug *bool) {
	configPath = fs.String("config", defaultConfigPath, "config file path")
	debug = fs.Bool("debug", false, "enable debug logging")
	return configPath, debug
}

// setup loads the config and creates the logger. It exits the process on failure.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func fail(logger *zap.Logger, what string, err error) {
	if logger != nil {
		_ = logger.Sync()
	}
	fmt.Printf("Failed to %s: %v\n", what, err)
	os.Exit(1)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// argsReorder moves flags that appear after positional arguments to the front so that
// flag.Parse sees them ("lexilaw ask what is oppression --case x.pdf").
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so questions work with or without quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// Components holds the services shared by chat, ask and serve.
type Components struct {
	Embedder  embedding.Embedder
	Generator llm.Generator
	Log       storage.Sink
	// Reader is nil when the configured log cannot be read back (amqp, none).
	Reader  storage.Reader
	Service *rag.Service
	closers []func() error
}

// Close releases every component in reverse order of creation.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	emb, err := embedding.New(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	c.Embedder = emb
	c.closers = append(c.closers, emb.Close)

	gen, err := llm.New(ctx, cfg.Generation)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize generator: %w", err)
	}
	c.Generator = gen
	c.closers = append(c.closers, gen.Close)

	sink, reader, closeLog, err := openInteractionLog(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open interaction log: %w", err)
	}
	c.Log, c.Reader = sink, reader
	c.closers = append(c.closers, closeLog)

	c.Service = rag.NewService(emb, gen, sink, extract.NewExtractor(extract.WithLogger(logger)),
		rag.WithLogger(logger),
		rag.WithGeneralStoreDir(cfg.Paths.ActsStore),
		rag.WithCaseDir(cfg.Paths.CaseDir),
		rag.WithTopK(cfg.Query.TopK),
		rag.WithTemperature(cfg.Generation.TemperatureOrDefault()),
		rag.WithCondense(cfg.Query.CondenseOrDefault()),
	)
	return c, nil
}

// openInteractionLog returns the sink turns are logged to and, when the driver supports it,
// a reader over the same log. The amqp driver publishes to the queue drained by log-worker.
func openInteractionLog(ctx context.Context, cfg *config.Config) (storage.Sink, storage.Reader, func() error, error) {
	if cfg.Log.Driver == "amqp" {
		conn, err := queue.Dial(ctx, cfg.Log.AMQPURL)
		if err != nil {
			return nil, nil, nil, err
		}
		pub := queue.NewPublisher(conn, cfg.Log.Queue)
		closer := func() error {
			_ = pub.Close()
			return conn.Close()
		}
		return pub, nil, closer, nil
	}
	log, err := storage.Open(ctx, logOptions(cfg.Log.Driver, cfg.Log.DSN, cfg))
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Log.Driver == storage.DriverNone {
		return log, nil, log.Close, nil
	}
	return log, log, log.Close, nil
}

// openLogReader opens the readable store behind the interaction log. For the amqp driver this
// is the store log-worker persists into.
func openLogReader(ctx context.Context, cfg *config.Config) (storage.Log, error) {
	switch cfg.Log.Driver {
	case "amqp":
		return storage.Open(ctx, logOptions(cfg.Log.WorkerDriver, cfg.Log.WorkerDSN, cfg))
	case storage.DriverNone:
		return nil, errors.New("interaction logging is disabled (interaction_log.driver: none)")
	}
	return storage.Open(ctx, logOptions(cfg.Log.Driver, cfg.Log.DSN, cfg))
}

func logOptions(driver, dsn string, cfg *config.Config) storage.Options {
	if driver == storage.DriverSQLite && dsn != "" {
		_ = os.MkdirAll(filepath.Dir(dsn), 0755)
	}
	return storage.Options{
		Driver:     driver,
		DSN:        dsn,
		Database:   cfg.Log.Database,
		Collection: cfg.Log.Collection,
	}
}

func printUsage() {
	fmt.Print(`LexiLaw - company law assistant over the Companies Act and case law

Usage:
  lexilaw <command> [flags]

Commands:
  build [input output]         Build vector stores (default: data -> acts, data/case_pdfs -> cases)
  metadata                     Extract issues and summaries for every case PDF
  cases [--issue X] [--search Q]
                               List cases from the metadata file
  chat                         Interactive chat in the terminal
  ask [--case FILE] <question> Answer one question
  serve                        Start the HTTP API
  insights                     Summarize the interaction log
  evaluate answers <dataset>   Score generated answers (ROUGE-1, ROUGE-L, TF-IDF cosine)
  evaluate embeddings <dataset>
                               Correlate embedding similarity with human scores
  publish                      Upload built stores to the configured bucket
  log-worker                   Persist interactions published to the queue
  version                      Print version
  help                         Show this help

Every command accepts --config (default: ./config.yaml, then ` + defaultConfigPath + `)
and --debug. Secrets are read from the environment or a .env file.
`)
}
