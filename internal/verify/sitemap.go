package verify

import (
	"encoding/xml"
	"fmt"
)

// Sitemap is a published sitemap as read back from the wire.
type Sitemap struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	Links      []Link `xml:"http://www.w3.org/1999/xhtml link"`
}

type Link struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// Alternates returns the hreflang → href map of the entry.
func (u URL) Alternates() map[string]string {
	alts := make(map[string]string, len(u.Links))
	for _, l := range u.Links {
		if l.Rel == "alternate" && l.Hreflang != "" {
			alts[l.Hreflang] = l.Href
		}
	}
	return alts
}

func ParseSitemap(data []byte) (*Sitemap, error) {
	var sitemap Sitemap
	if err := xml.Unmarshal(data, &sitemap); err != nil {
		return nil, fmt.Errorf("error parsing sitemap: %w", err)
	}
	return &sitemap, nil
}
