package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quantumnous/docsite/internal/models"
)

type Store interface {
	Initialize() error
	Close() error

	// Page index operations
	UpsertPage(ctx context.Context, page *models.PageRecord) error
	// ListPages orders by slug key; limit <= 0 returns every page.
	ListPages(ctx context.Context, locale string, limit, offset int) ([]*models.PageRecord, error)
	CountPages(ctx context.Context, locale string) (int, error)
	DeletePagesExcept(ctx context.Context, locale string, keep []uuid.UUID) (int64, error)
}

// Open returns the store for driver ("sqlite" or "postgres").
func Open(driver, url string) (Store, error) {
	switch driver {
	case "sqlite", "sqlite3", "":
		return NewSQLiteStore(url)
	case "postgres", "postgresql":
		return NewPostgresStore(url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// PageSource serves indexed pages to the sitemap builder.
type PageSource struct {
	store Store
}

func NewPageSource(store Store) *PageSource {
	return &PageSource{store: store}
}

func (p *PageSource) Pages(ctx context.Context, locale string) ([]models.Page, error) {
	records, err := p.store.ListPages(ctx, locale, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed pages: %w", err)
	}

	pages := make([]models.Page, 0, len(records))
	for _, r := range records {
		pages = append(pages, r.Page())
	}
	return pages, nil
}

// PageRange returns one window of the locale's indexed pages and the total
// number of pages in the locale.
func (p *PageSource) PageRange(ctx context.Context, locale string, limit, offset int) ([]models.Page, int, error) {
	total, err := p.store.CountPages(ctx, locale)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count indexed pages: %w", err)
	}

	records, err := p.store.ListPages(ctx, locale, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list indexed pages: %w", err)
	}

	pages := make([]models.Page, 0, len(records))
	for _, r := range records {
		pages = append(pages, r.Page())
	}
	return pages, total, nil
}
