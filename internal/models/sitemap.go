// internal/models/sitemap.go
package models

import (
	"encoding/xml"
	"time"
)

type ChangeFrequency string

const (
	ChangeDaily   ChangeFrequency = "daily"
	ChangeWeekly  ChangeFrequency = "weekly"
	ChangeMonthly ChangeFrequency = "monthly"
)

// XDefault is the alternate key for the locale-neutral fallback URL.
const XDefault = "x-default"

// SitemapEntry is one URL of the generated sitemap.
type SitemapEntry struct {
	URL             string          `json:"url"`
	LastModified    *time.Time      `json:"lastModified,omitempty"`
	ChangeFrequency ChangeFrequency `json:"changeFrequency"`
	Priority        float64         `json:"priority"`
	Alternates      Alternates      `json:"alternates"`
}

type Alternates struct {
	Languages map[string]string `json:"languages"`
}

// Sitemap represents the structure of an XML sitemap.
type Sitemap struct {
	XMLName    xml.Name `xml:"urlset"`
	Xmlns      string   `xml:"xmlns,attr,omitempty"`
	XmlnsXHTML string   `xml:"xmlns:xhtml,attr,omitempty"`
	URLs       []URL    `xml:"url"`
}

// URL represents a single URL entry in the sitemap.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	Links      []Link `xml:"xhtml:link"`
}

// Link is an hreflang alternate.
type Link struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}
