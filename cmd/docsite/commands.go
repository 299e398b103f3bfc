package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/quantumnous/docsite/config"
	"github.com/quantumnous/docsite/internal/content"
	"github.com/quantumnous/docsite/internal/i18n"
	"github.com/quantumnous/docsite/internal/indexer"
	"github.com/quantumnous/docsite/internal/metrics"
	"github.com/quantumnous/docsite/internal/openapi"
	"github.com/quantumnous/docsite/internal/sitemap"
	"github.com/quantumnous/docsite/internal/storage"
	"github.com/quantumnous/docsite/internal/utils"
	"github.com/quantumnous/docsite/internal/verify"
)

func openStore(cfg *config.Config) (storage.Store, error) {
	store, err := storage.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize database tables
	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}
	return store, nil
}

// pageSource returns the configured sitemap page source. The returned store
// is nil unless the database backs the pages.
func pageSource(cfg *config.Config, files *content.FileSource) (sitemap.PageSource, storage.Store, error) {
	if cfg.Site.PageSource != config.PageSourceDatabase {
		return files, nil, nil
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewPageSource(store), store, nil
}

func runSitemap(ctx context.Context, cfg *config.Config, output string, asJSON bool) error {
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	source, store, err := pageSource(cfg, content.NewFileSource(cfg.Site.ContentDir))
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	entries, err := sitemap.NewBuilder(registry, cfg.Site.Origin, source).Build(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(entries)
	} else {
		err = sitemap.WriteXML(w, entries, registry.Languages)
	}
	if err != nil {
		return err
	}

	if output != "" {
		log.Printf("Wrote %d sitemap entries to %s", len(entries), output)
	}
	return nil
}

func newIndexer(cfg *config.Config, registry *i18n.Registry, store storage.Store, recorder *metrics.Recorder) (*indexer.Indexer, *utils.RunLogger, error) {
	logger, err := utils.NewRunLogger(cfg.OpenAPI.LogDir, "index", "content")
	if err != nil {
		return nil, nil, err
	}
	ix := indexer.New(registry, content.NewFileSource(cfg.Site.ContentDir), store, logger).WithRecorder(recorder)
	return ix, logger, nil
}

func runIndex(ctx context.Context, cfg *config.Config) error {
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ix, logger, err := newIndexer(cfg, registry, store, nil)
	if err != nil {
		return err
	}
	defer logger.Close()

	results, err := ix.Run(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%s: %d pages, %d removed\n", r.Locale, r.Pages, r.Removed)
	}
	return nil
}

func runOpenAPI(ctx context.Context, cfg *config.Config, only []string) error {
	specs := cfg.GenerationSpecs()
	if len(only) > 0 {
		wanted := make(map[string]bool, len(only))
		for _, name := range only {
			wanted[name] = true
		}
		filtered := specs[:0]
		for _, s := range specs {
			if wanted[s.Name] {
				filtered = append(filtered, s)
				delete(wanted, s.Name)
			}
		}
		for name := range wanted {
			return fmt.Errorf("spec %q not found in configuration", name)
		}
		specs = filtered
	}

	fetcher := openapi.NewFetcher(cfg.OpenAPI.UserAgent, cfg.GetFetchTimeout())
	runner := openapi.NewRunner(fetcher, cfg.OpenAPI.LogDir, nil)

	runs, err := runner.RunAll(ctx, specs)
	for _, run := range runs {
		fmt.Printf("%s: %s (%d files)\n", run.Spec, run.Status, run.Files)
	}
	return err
}

func runVerify(ctx context.Context, cfg *config.Config, sitemapURL string, samples int) (bool, error) {
	if sitemapURL == "" {
		sitemapURL = cfg.Site.Origin + "/sitemap.xml"
	}

	logger, err := utils.NewRunLogger(cfg.OpenAPI.LogDir, "verify", "sitemap")
	if err != nil {
		return false, err
	}
	defer logger.Close()

	v := verify.New(verify.Options{
		UserAgent: cfg.OpenAPI.UserAgent,
		Samples:   samples,
		Timeout:   cfg.GetFetchTimeout(),
	}, logger)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	report, err := v.Run(ctx, sitemapURL)
	if err != nil {
		return false, err
	}
	report.Print(os.Stdout)
	return report.OK(), nil
}
