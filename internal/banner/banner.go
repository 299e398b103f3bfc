// Package banner holds the site-wide announcement banner.
package banner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/quantumnous/docsite/internal/models"
)

const fallbackLanguage = "en"

const (
	VariantRainbow = "rainbow"
	VariantNormal  = "normal"
)

// Default mirrors the renewal notice shipped with the site.
func Default() models.Banner {
	return models.Banner{
		ID:      "docs-renewal-notice",
		Variant: VariantRainbow,
		LinkURL: "https://doc.newapi.pro",
		Text: map[string]models.BannerText{
			"en": {Message: "Documentation renewed! For old docs, visit", LinkText: "doc.newapi.pro"},
			"zh": {Message: "文档焕新，旧文档请访问", LinkText: "doc.newapi.pro"},
			"ja": {Message: "ドキュメントが一新されました！旧ドキュメントは", LinkText: "doc.newapi.pro"},
		},
	}
}

// Banner is read-only after construction.
type Banner struct {
	cfg models.Banner
}

func New(cfg models.Banner) (*Banner, error) {
	if cfg.ID == "" {
		return nil, errors.New("banner id is required")
	}
	switch cfg.Variant {
	case "":
		cfg.Variant = VariantNormal
	case VariantRainbow, VariantNormal:
	default:
		return nil, fmt.Errorf("unknown banner variant %q", cfg.Variant)
	}
	if len(cfg.Text) == 0 {
		return nil, errors.New("banner needs at least one text")
	}

	text := make(map[string]models.BannerText, len(cfg.Text))
	for lang, t := range cfg.Text {
		text[lang] = t
	}
	cfg.Text = text
	return &Banner{cfg: cfg}, nil
}

// Content is what a page renders for one language.
type Content struct {
	ID       string `json:"id"`
	Variant  string `json:"variant"`
	LinkURL  string `json:"link_url"`
	Language string `json:"language"`
	Message  string `json:"message"`
	LinkText string `json:"link_text"`
}

// Content returns the text for lang, falling back to English and then to
// the first configured language in sorted order.
func (b *Banner) Content(lang string) Content {
	chosen := lang
	text, ok := b.cfg.Text[lang]
	if !ok || text.Message == "" {
		chosen = fallbackLanguage
		text, ok = b.cfg.Text[fallbackLanguage]
	}
	if !ok || text.Message == "" {
		langs := make([]string, 0, len(b.cfg.Text))
		for l := range b.cfg.Text {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		chosen = langs[0]
		text = b.cfg.Text[chosen]
	}

	return Content{
		ID:       b.cfg.ID,
		Variant:  b.cfg.Variant,
		LinkURL:  b.cfg.LinkURL,
		Language: chosen,
		Message:  text.Message,
		LinkText: text.LinkText,
	}
}
