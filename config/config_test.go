package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantumnous/docsite/internal/openapi"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "https://docs.newapi.pro", cfg.Site.Origin)
	require.Equal(t, []string{"en", "zh", "ja"}, cfg.Site.Languages)
	require.Equal(t, PageSourceContent, cfg.Site.PageSource)
	require.Equal(t, "docs-renewal-notice", cfg.Banner.ID)
	require.Len(t, cfg.OpenAPI.Specs, 2)
	require.Equal(t, openapi.NamingRoute, cfg.OpenAPI.Specs[1].Naming)
	require.True(t, cfg.OpenAPI.Specs[1].GroupByTag)
	require.Equal(t, time.Duration(0), cfg.GetGenerateInterval())
	require.Equal(t, 30*time.Second, cfg.GetFetchTimeout())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	t.Setenv("DOCSITE_SITE_ORIGIN", "https://docs.example.com/")

	cfg, err := LoadConfig(writeConfig(t, `
site:
  languages: [zh, en]
  defaultLanguage: zh
banner:
  id: launch
  variant: normal
  linkUrl: https://example.com
  text:
    en:
      message: Hello
      linkText: here
openapi:
  interval: 6h
  specs:
    - name: Relay
      input: ./openapi/relay.json
      output: content/docs/zh/api/ai-model
`))
	require.NoError(t, err)

	require.Equal(t, "https://docs.example.com", cfg.Site.Origin)
	reg, err := cfg.Registry()
	require.NoError(t, err)
	require.Equal(t, []string{"zh", "en"}, reg.Languages)
	require.Equal(t, "zh", reg.DefaultLanguage)

	require.Equal(t, "launch", cfg.Banner.ID)
	require.Equal(t, "https://example.com", cfg.Banner.LinkURL)
	require.Equal(t, "here", cfg.Banner.Text["en"].LinkText)

	require.Equal(t, 6*time.Hour, cfg.GetGenerateInterval())
	specs := cfg.GenerationSpecs()
	require.Len(t, specs, 1)
	require.Equal(t, "Relay", specs[0].Name)
	require.Equal(t, "./openapi/relay.json", specs[0].Input)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"relative origin": "site:\n  origin: docs.example.com\n",
		"origin path":     "site:\n  origin: https://docs.example.com/docs\n",
		"bad default":     "site:\n  languages: [en]\n  defaultLanguage: zh\n",
		"bad source":      "site:\n  pageSource: s3\n",
		"bad naming":      "openapi:\n  specs:\n    - {name: a, input: b, output: c, naming: odd}\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
