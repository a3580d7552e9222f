package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hyperjump/lexilaw/internal/cli"
	"github.com/hyperjump/lexilaw/internal/rag"
	"github.com/hyperjump/lexilaw/internal/tui"
)

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	caseName := fs.String("case", "", "start with this case selected")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	// The TUI owns the terminal; only errors reach the log.
	if !*debug && !cfg.Debug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
	}

	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fail(logger, "initialize", err)
	}
	defer components.Close()

	lib, closeLib, err := openLibrary(cfg, logger, false)
	if err != nil {
		fail(logger, "open case library", err)
	}
	defer closeLib()
	if err := lib.Reload(ctx); err != nil {
		fail(logger, "load case metadata", err)
	}

	m := tui.New(ctx, components.Service, lib, cfg.Paths.CaseDir)
	if *caseName != "" {
		m.Session().SelectCase(*caseName)
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		fail(logger, "run chat", err)
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	caseName := fs.String("case", "", "case file to discuss (default: general store)")
	temperature := fs.Float64("temperature", -1, "generation temperature (default: generation.temperature)")
	jsonOut := fs.Bool("json", false, "output JSON")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := joinArgs(fs.Args())
	if question == "" {
		fmt.Println("Usage: lexilaw ask [--case FILE] [--json] <question>")
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fail(logger, "initialize", err)
	}
	defer components.Close()

	sess := rag.NewSession("")
	sess.SelectCase(*caseName)
	if *temperature >= 0 {
		sess.Temperature = temperature
	}
	ans, err := components.Service.Ask(ctx, sess, question)
	if err != nil {
		fail(logger, "answer", err)
	}
	format := cli.OutputText
	if *jsonOut {
		format = cli.OutputJSON
	}
	_ = cli.WriteAnswer(os.Stdout, ans, format)
}
