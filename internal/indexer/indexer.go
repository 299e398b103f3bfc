// Package indexer copies the content tree into the page index store.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantumnous/docsite/internal/i18n"
	"github.com/quantumnous/docsite/internal/metrics"
	"github.com/quantumnous/docsite/internal/models"
	"github.com/quantumnous/docsite/internal/sitemap"
	"github.com/quantumnous/docsite/internal/storage"
	"github.com/quantumnous/docsite/internal/utils"
)

type Indexer struct {
	registry *i18n.Registry
	source   sitemap.PageSource
	store    storage.Store
	logger   *utils.RunLogger
	recorder *metrics.Recorder
}

// Result reports what a run did for one locale.
type Result struct {
	Locale  string
	Pages   int
	Removed int64
}

func New(registry *i18n.Registry, source sitemap.PageSource, store storage.Store, logger *utils.RunLogger) *Indexer {
	return &Indexer{
		registry: registry,
		source:   source,
		store:    store,
		logger:   logger,
	}
}

func (ix *Indexer) WithRecorder(r *metrics.Recorder) *Indexer {
	ix.recorder = r
	return ix
}

// Run upserts every page of every locale and removes pages that no longer exist.
func (ix *Indexer) Run(ctx context.Context) ([]Result, error) {
	start := time.Now()
	results := make([]Result, 0, len(ix.registry.Languages))

	for _, lang := range ix.registry.Languages {
		pages, err := ix.source.Pages(ctx, lang)
		if err != nil {
			ix.logger.LogError("Failed to read pages for %s: %v", lang, err)
			return results, fmt.Errorf("failed to read pages for %s: %w", lang, err)
		}

		keep := make([]uuid.UUID, 0, len(pages))
		for _, page := range pages {
			var lastModified *time.Time
			if t, ok := sitemap.ParseLastModified(page.Data.LastModified); ok {
				lastModified = &t
			}

			rec := models.NewPageRecord(lang, page, lastModified)
			if err := ix.store.UpsertPage(ctx, rec); err != nil {
				ix.logger.LogError("Failed to index %s/%s: %v", lang, rec.SlugKey, err)
				return results, fmt.Errorf("failed to index %s/%s: %w", lang, rec.SlugKey, err)
			}
			ix.logger.LogDebug("Indexed %s/%s", lang, rec.SlugKey)
			keep = append(keep, rec.ID)
		}

		removed, err := ix.store.DeletePagesExcept(ctx, lang, keep)
		if err != nil {
			return results, fmt.Errorf("failed to prune pages for %s: %w", lang, err)
		}

		ix.logger.LogInfo("Indexed %d pages for %s (%d removed)", len(pages), lang, removed)
		if ix.recorder != nil {
			ix.recorder.SetIndexedPages(lang, len(pages))
		}
		results = append(results, Result{Locale: lang, Pages: len(pages), Removed: removed})
	}

	ix.logger.LogInfo("Index run finished in %s", time.Since(start).Round(time.Millisecond))
	return results, nil
}
