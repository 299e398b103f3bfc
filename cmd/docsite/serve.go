package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantumnous/docsite/config"
	"github.com/quantumnous/docsite/internal/api"
	"github.com/quantumnous/docsite/internal/banner"
	"github.com/quantumnous/docsite/internal/content"
	"github.com/quantumnous/docsite/internal/metrics"
	"github.com/quantumnous/docsite/internal/openapi"
	"github.com/quantumnous/docsite/internal/sitemap"
	"github.com/quantumnous/docsite/internal/storage"
)

func runServe(cfg *config.Config, watch bool) error {
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	b, err := banner.New(cfg.Banner)
	if err != nil {
		return err
	}

	files := content.NewFileSource(cfg.Site.ContentDir)
	source, store, err := pageSource(cfg, files)
	if err != nil {
		return err
	}
	if watch && store == nil {
		if store, err = openStore(cfg); err != nil {
			return err
		}
	}
	if store != nil {
		defer store.Close()
	}

	recorder := metrics.NewRecorder(nil)
	specs := cfg.GenerationSpecs()
	runner := openapi.NewRunner(openapi.NewFetcher(cfg.OpenAPI.UserAgent, cfg.GetFetchTimeout()), cfg.OpenAPI.LogDir, recorder)

	handler := api.NewHandler(api.HandlerDeps{
		Registry: registry,
		Builder:  sitemap.NewBuilder(registry, cfg.Site.Origin, source),
		Pages:    source,
		Raw:      files,
		Banner:   b,
		Runner:   runner,
		Specs:    specs,
		Recorder: recorder,
	})

	// Initialize API server
	server := api.NewServer(api.ServerOptions{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup periodic generation
	var scheduler *openapi.Scheduler
	if interval := cfg.GetGenerateInterval(); interval > 0 && len(specs) > 0 {
		scheduler, err = openapi.NewScheduler(runner, specs)
		if err != nil {
			return err
		}
		if _, err := scheduler.Every(interval); err != nil {
			return err
		}
		scheduler.Start()
		log.Printf("OpenAPI generation scheduled every %s", interval)
	}

	if watch {
		if err := startWatcher(ctx, cfg, files, store, recorder); err != nil {
			return err
		}
	}

	// Start the API server
	go func() {
		log.Printf("Starting API server on port %d", cfg.Server.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	// Wait for shutdown
	waitForShutdown(cancel, server, scheduler)
	return nil
}

// startWatcher indexes the content once and again after every change.
func startWatcher(ctx context.Context, cfg *config.Config, files *content.FileSource, store storage.Store, recorder *metrics.Recorder) error {
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	ix, logger, err := newIndexer(cfg, registry, store, recorder)
	if err != nil {
		return err
	}

	reindex := func() {
		if _, err := ix.Run(ctx); err != nil {
			logger.LogError("Re-index failed: %v", err)
		}
	}
	reindex()

	go func() {
		defer logger.Close()
		log.Printf("Watching %s for changes", files.Root())
		if err := files.Watch(ctx, reindex); err != nil {
			log.Printf("Content watcher stopped: %v", err)
		}
	}()
	return nil
}

func waitForShutdown(cancel context.CancelFunc, server *api.Server, scheduler *openapi.Scheduler) {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down...")
	cancel()

	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Error stopping scheduler: %v", err)
		}
	}

	// Graceful server shutdown
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	log.Println("Server shut down gracefully")
}
