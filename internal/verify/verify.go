package verify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/quantumnous/docsite/internal/models"
	"github.com/quantumnous/docsite/internal/utils"
)

const sampleKey = "sample"

type Options struct {
	UserAgent string
	// Samples is the number of sitemap entries whose pages are fetched.
	// Zero checks the sitemap only.
	Samples int
	Timeout time.Duration
}

// PageReport holds what a sampled page declares about its languages.
type PageReport struct {
	URL        string            `json:"url"`
	Status     int               `json:"status"`
	Lang       string            `json:"lang"`
	Alternates map[string]string `json:"alternates"`
	Problems   []string          `json:"problems,omitempty"`
}

type Report struct {
	SitemapURL string       `json:"sitemap_url"`
	Entries    int          `json:"entries"`
	Problems   []string     `json:"problems,omitempty"`
	Pages      []PageReport `json:"pages"`
}

// OK reports whether neither the sitemap nor any sampled page had problems.
func (r *Report) OK() bool {
	if len(r.Problems) > 0 {
		return false
	}
	for _, p := range r.Pages {
		if len(p.Problems) > 0 {
			return false
		}
	}
	return true
}

type Verifier struct {
	opts   Options
	logger *utils.RunLogger
}

func New(opts Options, logger *utils.RunLogger) *Verifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Verifier{opts: opts, logger: logger}
}

func (v *Verifier) collector(ctx context.Context, host string) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowedDomains(host),
	)
	if v.opts.UserAgent != "" {
		c.UserAgent = v.opts.UserAgent
	}
	c.SetRequestTimeout(v.opts.Timeout)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	return c
}

// Run fetches sitemapURL, checks its entries and visits the sampled pages.
func (v *Verifier) Run(ctx context.Context, sitemapURL string) (*Report, error) {
	u, err := url.Parse(sitemapURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid sitemap URL %q", sitemapURL)
	}

	data, err := v.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	sitemap, err := ParseSitemap(data)
	if err != nil {
		return nil, err
	}

	report := &Report{SitemapURL: sitemapURL, Entries: len(sitemap.URLs), Pages: []PageReport{}}
	v.logger.LogInfo("Total URLs found: %d", len(sitemap.URLs))
	report.Problems = CheckEntries(sitemap.URLs)
	for _, p := range report.Problems {
		v.logger.LogError("%s", p)
	}

	samples := v.opts.Samples
	if samples > len(sitemap.URLs) {
		samples = len(sitemap.URLs)
	}
	if samples > 0 {
		report.Pages = v.visit(ctx, u.Hostname(), sitemap.URLs[:samples])
	}
	return report, nil
}

func (v *Verifier) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	c := v.collector(ctx, u.Hostname())
	c.MaxBodySize = 0

	var body []byte
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(u.String()); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if err := ctx.Err(); err != nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", u, fetchErr)
	}
	return body, nil
}

// CheckEntries validates the alternates of every sitemap entry: each entry
// needs an x-default and must list itself among its alternates.
func CheckEntries(urls []URL) []string {
	var problems []string
	seen := make(map[string]bool, len(urls))
	for _, entry := range urls {
		if seen[entry.Loc] {
			problems = append(problems, fmt.Sprintf("%s: duplicate entry", entry.Loc))
		}
		seen[entry.Loc] = true

		alts := entry.Alternates()
		if _, ok := alts[models.XDefault]; !ok {
			problems = append(problems, fmt.Sprintf("%s: missing %s alternate", entry.Loc, models.XDefault))
		}
		self := false
		for lang, href := range alts {
			if lang != models.XDefault && href == entry.Loc {
				self = true
				break
			}
		}
		if !self {
			problems = append(problems, fmt.Sprintf("%s: not listed among its own alternates", entry.Loc))
		}
	}
	return problems
}

func (v *Verifier) visit(ctx context.Context, host string, entries []URL) []PageReport {
	c := v.collector(ctx, host)

	byURL := make(map[string]*PageReport, len(entries))
	reports := make([]PageReport, len(entries))
	for i, entry := range entries {
		reports[i] = PageReport{URL: entry.Loc, Alternates: map[string]string{}}
		byURL[entry.Loc] = &reports[i]
	}

	// Redirects rewrite Request.URL, so reports are keyed by the URL the
	// sample was requested with.
	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(sampleKey, r.URL.String())
	})
	report := func(r *colly.Request) (*PageReport, bool) {
		page, ok := byURL[r.Ctx.Get(sampleKey)]
		return page, ok
	}

	c.OnResponse(func(r *colly.Response) {
		if page, ok := report(r.Request); ok {
			page.Status = r.StatusCode
		}
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		page, ok := report(e.Request)
		if !ok {
			return
		}
		page.Lang = strings.TrimSpace(e.Attr("lang"))
		ExtractAlternates(e.DOM, page.Alternates)
	})
	c.OnError(func(r *colly.Response, err error) {
		if page, ok := report(r.Request); ok {
			page.Status = r.StatusCode
			page.Problems = append(page.Problems, fmt.Sprintf("fetch failed: %v", err))
		}
	})

	for idx, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		v.logger.LogInfo("Processing URL %d/%d: %s", idx+1, len(entries), entry.Loc)
		if err := c.Visit(entry.Loc); err != nil && len(byURL[entry.Loc].Problems) == 0 {
			byURL[entry.Loc].Problems = append(byURL[entry.Loc].Problems, fmt.Sprintf("visit failed: %v", err))
		}
	}

	for i, entry := range entries {
		page := &reports[i]
		if page.Status == 0 || page.Status >= 400 {
			if len(page.Problems) == 0 {
				page.Problems = append(page.Problems, "no response")
			}
			continue
		}
		page.Problems = append(page.Problems, comparePage(entry, page)...)
		for _, p := range page.Problems {
			v.logger.LogError("%s: %s", page.URL, p)
		}
	}
	return reports
}

// ExtractAlternates collects <link rel="alternate" hreflang> declarations.
func ExtractAlternates(sel *goquery.Selection, into map[string]string) {
	sel.Find("link[rel='alternate'][hreflang]").Each(func(_ int, s *goquery.Selection) {
		lang, _ := s.Attr("hreflang")
		href, _ := s.Attr("href")
		lang = strings.TrimSpace(lang)
		if lang != "" {
			into[lang] = strings.TrimSpace(href)
		}
	})
}

// comparePage checks a fetched page against its sitemap entry.
func comparePage(entry URL, page *PageReport) []string {
	var problems []string
	want := ""
	for lang, href := range entry.Alternates() {
		if lang != models.XDefault && href == entry.Loc {
			want = lang
		}
	}
	if page.Lang == "" {
		problems = append(problems, "missing <html lang>")
	} else if want != "" && !strings.EqualFold(page.Lang, want) && !strings.HasPrefix(strings.ToLower(page.Lang), strings.ToLower(want)+"-") {
		problems = append(problems, fmt.Sprintf("html lang %q, sitemap says %q", page.Lang, want))
	}

	for lang, href := range entry.Alternates() {
		got, ok := page.Alternates[lang]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing hreflang %q", lang))
		case got != href:
			problems = append(problems, fmt.Sprintf("hreflang %q points to %s, sitemap says %s", lang, got, href))
		}
	}
	return problems
}
