package sitemap

import (
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/quantumnous/docsite/internal/models"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNS   = "http://www.w3.org/1999/xhtml"
)

// ToXML converts entries to the urlset document. Alternate links follow
// the registry language order with x-default last.
func ToXML(entries []models.SitemapEntry, languages []string) models.Sitemap {
	sm := models.Sitemap{
		Xmlns:      sitemapNS,
		XmlnsXHTML: xhtmlNS,
		URLs:       make([]models.URL, 0, len(entries)),
	}

	for _, e := range entries {
		u := models.URL{
			Loc:        e.URL,
			ChangeFreq: string(e.ChangeFrequency),
			Priority:   strconv.FormatFloat(e.Priority, 'f', 1, 64),
		}
		if e.LastModified != nil {
			u.LastMod = e.LastModified.UTC().Format(time.RFC3339)
		}
		u.Links = alternateLinks(e.Alternates.Languages, languages)
		sm.URLs = append(sm.URLs, u)
	}

	return sm
}

func alternateLinks(alts map[string]string, languages []string) []models.Link {
	links := make([]models.Link, 0, len(alts))
	used := make(map[string]bool, len(alts))
	for _, lang := range languages {
		if href, ok := alts[lang]; ok {
			links = append(links, models.Link{Rel: "alternate", Hreflang: lang, Href: href})
			used[lang] = true
		}
	}

	// Keys outside the registry still get emitted, in a stable order.
	var rest []string
	for lang := range alts {
		if !used[lang] && lang != models.XDefault {
			rest = append(rest, lang)
		}
	}
	sort.Strings(rest)
	for _, lang := range rest {
		links = append(links, models.Link{Rel: "alternate", Hreflang: lang, Href: alts[lang]})
	}

	if href, ok := alts[models.XDefault]; ok {
		links = append(links, models.Link{Rel: "alternate", Hreflang: models.XDefault, Href: href})
	}
	return links
}

// WriteXML writes the sitemap document, including the XML header.
func WriteXML(w io.Writer, entries []models.SitemapEntry, languages []string) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(ToXML(entries, languages)); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
