package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantumnous/docsite/internal/i18n"
	"github.com/quantumnous/docsite/internal/models"
	"github.com/quantumnous/docsite/internal/sitemap"
	"github.com/quantumnous/docsite/internal/utils"
)

type siteOptions struct {
	// broken pages declare the wrong language and no x-default alternate.
	broken []string
	// redirected paths answer with a trailing-slash redirect.
	redirected []string
}

// newSite serves a sitemap for en/zh plus one HTML page per entry.
func newSite(t *testing.T, opts siteOptions) *httptest.Server {
	t.Helper()
	reg, err := i18n.NewRegistry([]string{"en", "zh"}, "en")
	require.NoError(t, err)

	var entries []models.SitemapEntry
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	source := sitemap.PageSourceFunc(func(ctx context.Context, locale string) ([]models.Page, error) {
		return []models.Page{{Slugs: []string{"guide"}}}, nil
	})
	b := sitemap.NewBuilder(reg, srv.URL, source)
	b.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	entries, err = b.Build(context.Background())
	require.NoError(t, err)

	isBroken := map[string]bool{}
	for _, p := range opts.broken {
		isBroken[p] = true
	}
	isRedirected := map[string]bool{}
	for _, p := range opts.redirected {
		isRedirected[p] = true
	}

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_ = sitemap.WriteXML(w, entries, reg.Languages)
	})
	for _, entry := range entries {
		entry := entry
		path := strings.TrimPrefix(entry.URL, srv.URL)
		lang := strings.Split(strings.TrimPrefix(path, "/"), "/")[0]
		page := func(w http.ResponseWriter, r *http.Request) {
			htmlLang := lang
			if isBroken[path] {
				htmlLang = "fr"
			}
			var links strings.Builder
			keys := make([]string, 0, len(entry.Alternates.Languages))
			for k := range entry.Alternates.Languages {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if isBroken[path] && k == models.XDefault {
					continue
				}
				fmt.Fprintf(&links, `<link rel="alternate" hreflang="%s" href="%s">`, k, entry.Alternates.Languages[k])
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, `<!doctype html><html lang="%s"><head><title>t</title>%s</head><body>ok</body></html>`, htmlLang, links.String())
		}

		if isRedirected[path] {
			mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, path+"/", http.StatusMovedPermanently)
			})
			mux.HandleFunc(path+"/{$}", page)
			continue
		}
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != path {
				http.NotFound(w, r)
				return
			}
			page(w, r)
		})
	}
	return srv
}

func TestParseSitemap(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml">
  <url>
    <loc>https://docs.example.com/en/docs/guide</loc>
    <changefreq>weekly</changefreq>
    <priority>0.9</priority>
    <xhtml:link rel="alternate" hreflang="en" href="https://docs.example.com/en/docs/guide"></xhtml:link>
    <xhtml:link rel="alternate" hreflang="x-default" href="https://docs.example.com/en/docs/guide"></xhtml:link>
  </url>
</urlset>`)

	s, err := ParseSitemap(data)
	require.NoError(t, err)
	require.Len(t, s.URLs, 1)
	require.Equal(t, "0.9", s.URLs[0].Priority)
	require.Equal(t, map[string]string{
		"en":        "https://docs.example.com/en/docs/guide",
		"x-default": "https://docs.example.com/en/docs/guide",
	}, s.URLs[0].Alternates())
	require.Empty(t, CheckEntries(s.URLs))

	_, err = ParseSitemap([]byte("not xml"))
	require.Error(t, err)
}

func TestCheckEntries(t *testing.T) {
	urls := []URL{
		{Loc: "https://a/en", Links: []Link{{Rel: "alternate", Hreflang: "en", Href: "https://a/en"}}},
		{Loc: "https://a/zh", Links: []Link{
			{Rel: "alternate", Hreflang: "en", Href: "https://a/en"},
			{Rel: "alternate", Hreflang: "x-default", Href: "https://a/en"},
		}},
		{Loc: "https://a/zh"},
	}
	problems := CheckEntries(urls)
	require.Contains(t, problems, "https://a/en: missing x-default alternate")
	require.Contains(t, problems, "https://a/zh: not listed among its own alternates")
	require.Contains(t, problems, "https://a/zh: duplicate entry")
}

func TestVerifyPublishedSitemap(t *testing.T) {
	srv := newSite(t, siteOptions{})

	v := New(Options{Samples: 10}, utils.NewWriterLogger(io.Discard))
	report, err := v.Run(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)

	require.Equal(t, 4, report.Entries)
	require.Empty(t, report.Problems)
	require.Len(t, report.Pages, 4)
	require.True(t, report.OK(), "%+v", report)

	page := report.Pages[3]
	require.Equal(t, srv.URL+"/zh/docs/guide", page.URL)
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "zh", page.Lang)
	require.Equal(t, srv.URL+"/en/docs/guide", page.Alternates["x-default"])

	var out bytes.Buffer
	report.Print(&out)
	require.Contains(t, out.String(), "Total URLs found: 4")
	require.True(t, strings.HasSuffix(out.String(), "OK\n"))
}

func TestVerifyReportsPageProblems(t *testing.T) {
	srv := newSite(t, siteOptions{broken: []string{"/zh/docs/guide"}})

	v := New(Options{Samples: 4}, utils.NewWriterLogger(io.Discard))
	report, err := v.Run(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)
	require.False(t, report.OK())

	page := report.Pages[3]
	require.Contains(t, page.Problems, `html lang "fr", sitemap says "zh"`)
	require.Contains(t, page.Problems, `missing hreflang "x-default"`)
	require.Empty(t, report.Pages[2].Problems)
}

func TestVerifySamplesOnly(t *testing.T) {
	srv := newSite(t, siteOptions{})

	v := New(Options{Samples: 1}, utils.NewWriterLogger(io.Discard))
	report, err := v.Run(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	require.Equal(t, srv.URL+"/en", report.Pages[0].URL)
}

func TestVerifyMissingSitemap(t *testing.T) {
	srv := newSite(t, siteOptions{})

	v := New(Options{}, utils.NewWriterLogger(io.Discard))
	_, err := v.Run(context.Background(), srv.URL+"/nope.xml")
	require.Error(t, err)

	_, err = v.Run(context.Background(), "::bad")
	require.Error(t, err)
}

func TestVerifyFollowsRedirects(t *testing.T) {
	srv := newSite(t, siteOptions{redirected: []string{"/zh/docs/guide"}})

	v := New(Options{Samples: 4}, utils.NewWriterLogger(io.Discard))
	report, err := v.Run(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)
	require.True(t, report.OK(), "%+v", report)

	page := report.Pages[3]
	require.Equal(t, srv.URL+"/zh/docs/guide", page.URL)
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "zh", page.Lang)
	require.Equal(t, srv.URL+"/zh/docs/guide", page.Alternates["zh"])
}

func TestVerifyCanceledContext(t *testing.T) {
	srv := newSite(t, siteOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := New(Options{Samples: 1}, utils.NewWriterLogger(io.Discard))
	_, err := v.Run(ctx, srv.URL+"/sitemap.xml")
	require.ErrorIs(t, err, context.Canceled)
}
