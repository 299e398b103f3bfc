package verify

import (
	"fmt"
	"io"
	"sort"
)

// Print writes a human readable summary of the report.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Sitemap: %s\n", r.SitemapURL)
	fmt.Fprintf(w, "Total URLs found: %d\n", r.Entries)
	for _, p := range r.Problems {
		fmt.Fprintf(w, "  ! %s\n", p)
	}

	for i, page := range r.Pages {
		fmt.Fprintf(w, "\n=== URL %d/%d: %s ===\n", i+1, len(r.Pages), page.URL)
		fmt.Fprintf(w, "status=%d lang=%q\n", page.Status, page.Lang)

		langs := make([]string, 0, len(page.Alternates))
		for lang := range page.Alternates {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			fmt.Fprintf(w, "  %s -> %s\n", lang, page.Alternates[lang])
		}
		for _, p := range page.Problems {
			fmt.Fprintf(w, "  ! %s\n", p)
		}
	}

	if r.OK() {
		fmt.Fprintln(w, "\nOK")
	} else {
		fmt.Fprintln(w, "\nFAILED")
	}
}
