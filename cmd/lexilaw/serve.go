package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/blob"
	"github.com/hyperjump/lexilaw/internal/casemeta"
	"github.com/hyperjump/lexilaw/internal/config"
	"github.com/hyperjump/lexilaw/internal/rag"
	"github.com/hyperjump/lexilaw/internal/server"
	"github.com/hyperjump/lexilaw/internal/session"
	"github.com/hyperjump/lexilaw/internal/watcher"
)

const (
	targetMetadata = "metadata"
	targetGeneral  = "general-store"
)

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath, debug := commonFlags(fs)
	watch := fs.Bool("watch", false, "reload case metadata and the general store when they change on disk")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	if cfg.Publish.Pull {
		if err := pullStores(ctx, cfg, logger); err != nil {
			fail(logger, "pull published stores", err)
		}
	}

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fail(logger, "initialize", err)
	}
	defer components.Close()

	sessions, err := session.Open(ctx, session.Options{
		Backend:  cfg.Sessions.Backend,
		Addr:     cfg.Sessions.RedisAddr,
		Password: cfg.Sessions.RedisPassword,
		DB:       cfg.Sessions.RedisDB,
		TTL:      time.Duration(cfg.Sessions.TTLMinutes) * time.Minute,
	})
	if err != nil {
		fail(logger, "open session store", err)
	}
	defer sessions.Close()

	lib, closeLib, err := openLibrary(cfg, logger, true)
	if err != nil {
		fail(logger, "open case library", err)
	}
	defer closeLib()
	if err := lib.Reload(ctx); err != nil {
		fail(logger, "load case metadata", err)
	}

	// Warm the general store so the first question does not pay for loading it.
	if _, err := components.Service.General(); err != nil {
		logger.Warn("general store not loaded; run `lexilaw build` first", zap.String("path", cfg.Paths.ActsStore), zap.Error(err))
	}

	if *watch {
		w := newReloadWatcher(cfg, lib, components.Service, logger)
		if err := w.Start(ctx); err != nil {
			fail(logger, "start watcher", err)
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.Service, sessions, lib, components.Reader, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// newReloadWatcher reloads the case library when the metadata file is rewritten and the
// general store when a build replaces it.
func newReloadWatcher(cfg *config.Config, lib *casemeta.Library, svc *rag.Service, logger *zap.Logger) *watcher.Watcher {
	targets := []watcher.Target{
		{
			Name:  targetMetadata,
			Dir:   filepath.Dir(cfg.Paths.MetadataFile),
			Match: watcher.FileMatcher(filepath.Base(cfg.Paths.MetadataFile)),
		},
		{
			Name:  targetGeneral,
			Dir:   filepath.Dir(cfg.Paths.ActsStore),
			Match: watcher.FileMatcher(filepath.Base(cfg.Paths.ActsStore)),
		},
	}
	return watcher.NewWatcher(targets,
		func(ctx context.Context, name string, _ []string) {
			switch name {
			case targetMetadata:
				if err := lib.Reload(ctx); err != nil {
					logger.Warn("case metadata reload failed", zap.Error(err))
					return
				}
				logger.Info("case metadata reloaded", zap.Int("cases", lib.Catalog().Len()))
			case targetGeneral:
				svc.Reload()
				logger.Info("general store will be reloaded on next question")
			}
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond),
	)
}

// pullStores replaces the local acts and cases stores with the published copies.
func pullStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	bucket, err := blob.Open(ctx, cfg.Publish)
	if err != nil {
		return err
	}
	for name, dir := range storeDirs(cfg) {
		err := blob.Fetch(ctx, bucket, blob.Key(cfg.Publish.Prefix, name), dir)
		if errors.Is(err, blob.ErrNotFound) {
			logger.Warn("store not published, keeping local copy", zap.String("store", name))
			continue
		}
		if err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}
		logger.Info("store pulled", zap.String("store", name), zap.String("dir", dir))
	}
	return nil
}

// storeDirs maps published store names to their local directories.
func storeDirs(cfg *config.Config) map[string]string {
	return map[string]string{
		"acts":  cfg.Paths.ActsStore,
		"cases": cfg.Paths.CasesStore,
	}
}
