package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Page is a single documentation page as seen by the sitemap builder.
type Page struct {
	Slugs []string `json:"slugs"`
	Data  PageData `json:"data"`
}

// PageData holds the front matter fields the site cares about.
// LastModified is nil, a time.Time, a *time.Time or a date string.
type PageData struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	LastModified any    `json:"lastModified,omitempty"`
}

// SlugKey joins the slug segments with "/".
func (p Page) SlugKey() string {
	return strings.Join(p.Slugs, "/")
}

// PageRecord is a page persisted in the page index.
type PageRecord struct {
	ID           uuid.UUID  `json:"id"`
	Locale       string     `json:"locale"`
	SlugKey      string     `json:"slug_key"`
	Slugs        []string   `json:"slugs"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Banner is the site-wide announcement shown above every page.
type Banner struct {
	ID      string                `json:"id" mapstructure:"id"`
	Variant string                `json:"variant" mapstructure:"variant"`
	LinkURL string                `json:"link_url" mapstructure:"linkurl"`
	Text    map[string]BannerText `json:"text" mapstructure:"text"`
}

type BannerText struct {
	Message  string `json:"message" mapstructure:"message"`
	LinkText string `json:"link_text" mapstructure:"linktext"`
}

// GenerationRun describes one OpenAPI documentation generation.
type GenerationRun struct {
	ID         uuid.UUID  `json:"id"`
	Spec       string     `json:"spec"`
	Status     string     `json:"status"`
	Files      int        `json:"files"`
	Errors     []string   `json:"errors,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
