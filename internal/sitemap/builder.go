// Package sitemap builds the site's sitemap entries with per-language
// alternates from the locale registry and a page source.
package sitemap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantumnous/docsite/internal/i18n"
	"github.com/quantumnous/docsite/internal/models"
)

// PageSource returns every documentation page available in a locale.
type PageSource interface {
	Pages(ctx context.Context, locale string) ([]models.Page, error)
}

// PageSourceFunc adapts a plain function to PageSource.
type PageSourceFunc func(ctx context.Context, locale string) ([]models.Page, error)

func (f PageSourceFunc) Pages(ctx context.Context, locale string) ([]models.Page, error) {
	return f(ctx, locale)
}

type Builder struct {
	registry *i18n.Registry
	origin   string
	source   PageSource

	// Now stamps the homepage entries. Nil leaves them without lastModified.
	Now func() time.Time
}

func NewBuilder(registry *i18n.Registry, origin string, source PageSource) *Builder {
	return &Builder{
		registry: registry,
		origin:   strings.TrimRight(origin, "/"),
		source:   source,
		Now:      time.Now,
	}
}

type localePage struct {
	locale string
	page   models.Page
}

// Build returns homepages for every locale followed by doc pages grouped by slug.
func (b *Builder) Build(ctx context.Context) ([]models.SitemapEntry, error) {
	var entries []models.SitemapEntry

	for _, lang := range b.registry.Languages {
		entry := models.SitemapEntry{
			URL:             fmt.Sprintf("%s/%s", b.origin, lang),
			ChangeFrequency: models.ChangeDaily,
			Priority:        1.0,
			Alternates:      models.Alternates{Languages: b.alternates("")},
		}
		if b.Now != nil {
			now := b.Now()
			entry.LastModified = &now
		}
		entries = append(entries, entry)
	}

	// Map iteration is unordered, keys keeps first-seen order.
	var keys []string
	bySlug := make(map[string][]localePage)
	for _, lang := range b.registry.Languages {
		pages, err := b.source.Pages(ctx, lang)
		if err != nil {
			return nil, fmt.Errorf("failed to load pages for %s: %w", lang, err)
		}
		for _, page := range pages {
			key := page.SlugKey()
			if _, ok := bySlug[key]; !ok {
				keys = append(keys, key)
			}
			bySlug[key] = append(bySlug[key], localePage{locale: lang, page: page})
		}
	}

	for _, key := range keys {
		path := "/docs/" + key
		for _, lp := range bySlug[key] {
			entry := models.SitemapEntry{
				URL:             fmt.Sprintf("%s/%s%s", b.origin, lp.locale, path),
				ChangeFrequency: ChangeFrequencyFor(lp.page.Slugs),
				Priority:        PriorityFor(len(lp.page.Slugs)),
				Alternates:      models.Alternates{Languages: b.alternates(path)},
			}
			if t, ok := ParseLastModified(lp.page.Data.LastModified); ok {
				entry.LastModified = &t
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func (b *Builder) alternates(path string) map[string]string {
	alts := make(map[string]string, len(b.registry.Languages)+1)
	for _, lang := range b.registry.Languages {
		alts[lang] = fmt.Sprintf("%s/%s%s", b.origin, lang, path)
	}
	alts[models.XDefault] = fmt.Sprintf("%s/%s%s", b.origin, b.registry.DefaultLanguage, path)
	return alts
}

// PriorityFor maps slug depth to a sitemap priority.
func PriorityFor(depth int) float64 {
	switch depth {
	case 1:
		return 0.9
	case 2:
		return 0.8
	default:
		return 0.7
	}
}

// ChangeFrequencyFor marks API reference pages as monthly and everything else weekly.
func ChangeFrequencyFor(slugs []string) models.ChangeFrequency {
	if len(slugs) > 0 && slugs[0] == "api" {
		return models.ChangeMonthly
	}
	return models.ChangeWeekly
}

var lastModifiedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02",
}

// ParseLastModified accepts the value front matter carries for lastModified.
// Times pass through unchanged, strings are parsed, anything else is absent.
func ParseLastModified(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range lastModifiedLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
