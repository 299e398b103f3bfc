package models

import (
	"time"

	"github.com/google/uuid"
)

var pageNamespace = uuid.MustParse("6f1c3a52-8f0e-4c55-9d0b-3b1f0b8e2a41")

// NewPageRecord creates a record for a page with a stable ID derived from its locale and slug.
func NewPageRecord(locale string, page Page, lastModified *time.Time) *PageRecord {
	now := time.Now()
	key := page.SlugKey()
	return &PageRecord{
		ID:           uuid.NewSHA1(pageNamespace, []byte(locale+"/"+key)),
		Locale:       locale,
		SlugKey:      key,
		Slugs:        append([]string(nil), page.Slugs...),
		Title:        page.Data.Title,
		Description:  page.Data.Description,
		LastModified: lastModified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Page converts the record back to the builder's view.
func (r *PageRecord) Page() Page {
	p := Page{
		Slugs: append([]string(nil), r.Slugs...),
		Data: PageData{
			Title:       r.Title,
			Description: r.Description,
		},
	}
	if r.LastModified != nil {
		p.Data.LastModified = *r.LastModified
	}
	return p
}
