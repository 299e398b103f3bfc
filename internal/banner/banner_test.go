package banner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantumnous/docsite/internal/models"
)

func TestContent_Fallbacks(t *testing.T) {
	b, err := New(Default())
	require.NoError(t, err)

	zh := b.Content("zh")
	require.Equal(t, "zh", zh.Language)
	require.Equal(t, "文档焕新，旧文档请访问", zh.Message)
	require.Equal(t, "docs-renewal-notice", zh.ID)
	require.Equal(t, VariantRainbow, zh.Variant)

	fr := b.Content("fr")
	require.Equal(t, "en", fr.Language)
	require.Equal(t, "Documentation renewed! For old docs, visit", fr.Message)

	require.Equal(t, "en", b.Content("").Language)
}

func TestContent_NoEnglish(t *testing.T) {
	b, err := New(models.Banner{
		ID: "x",
		Text: map[string]models.BannerText{
			"zh": {Message: "你好"},
			"ja": {Message: "こんにちは"},
		},
	})
	require.NoError(t, err)

	c := b.Content("fr")
	require.Equal(t, "ja", c.Language)
	require.Equal(t, VariantNormal, c.Variant)
}

func TestNew_Validates(t *testing.T) {
	_, err := New(models.Banner{Text: map[string]models.BannerText{"en": {Message: "m"}}})
	require.Error(t, err)

	_, err = New(models.Banner{ID: "x", Variant: "blink", Text: map[string]models.BannerText{"en": {Message: "m"}}})
	require.Error(t, err)

	_, err = New(models.Banner{ID: "x"})
	require.Error(t, err)
}

func TestNew_CopiesText(t *testing.T) {
	cfg := Default()
	b, err := New(cfg)
	require.NoError(t, err)

	cfg.Text["en"] = models.BannerText{Message: "changed"}
	require.Equal(t, "Documentation renewed! For old docs, visit", b.Content("en").Message)
}
