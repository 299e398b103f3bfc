package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/quantumnous/docsite/internal/banner"
	"github.com/quantumnous/docsite/internal/i18n"
	"github.com/quantumnous/docsite/internal/models"
	"github.com/quantumnous/docsite/internal/openapi"
)

const (
	PageSourceContent  = "content"
	PageSourceDatabase = "database"
)

type Config struct {
	Server struct {
		Port           int
		AllowedOrigins []string
	}
	Database struct {
		Driver string
		URL    string
	}
	Site struct {
		Origin          string
		Languages       []string
		DefaultLanguage string
		ContentDir      string
		PageSource      string
	}
	Banner  models.Banner
	OpenAPI struct {
		UserAgent string
		Interval  string
		Timeout   string
		LogDir    string
		Specs     []OpenAPISpec
	}
}

type OpenAPISpec struct {
	Name                string
	Input               string
	Output              string
	Naming              string
	GroupByTag          bool
	IncludeDescription  bool
	AddGeneratedComment bool
	Clean               bool
}

// LoadConfig reads config.yaml (or path when set), the environment and a
// local .env file. A missing config file leaves the defaults in place.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DOCSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Banner.ID == "" {
		config.Banner = banner.Default()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.allowedorigins", []string{
		"http://localhost:3000",
		"https://docs.newapi.pro",
		"https://newapi.pro",
		"https://www.newapi.pro",
		"https://docs.newapi.ai",
		"https://newapi.ai",
		"https://www.newapi.ai",
		"https://new-api-docs-v1.vercel.app",
	})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "docsite.db")

	v.SetDefault("site.origin", "https://docs.newapi.pro")
	v.SetDefault("site.languages", []string{"en", "zh", "ja"})
	v.SetDefault("site.defaultlanguage", "en")
	v.SetDefault("site.contentdir", "content/docs")
	v.SetDefault("site.pagesource", PageSourceContent)

	v.SetDefault("openapi.useragent", "docsite OpenAPI generator v1.0")
	v.SetDefault("openapi.interval", "")
	v.SetDefault("openapi.timeout", "30s")
	v.SetDefault("openapi.logdir", "logs")
	v.SetDefault("openapi.specs", []map[string]interface{}{
		{
			"name":                "AI Model API",
			"input":               "https://raw.githubusercontent.com/QuantumNous/new-api/refs/heads/main/docs/openapi/relay.json",
			"output":              "content/docs/zh/api/ai-model",
			"naming":              openapi.NamingOperationID,
			"groupbytag":          true,
			"includedescription":  true,
			"addgeneratedcomment": true,
		},
		{
			"name":                "Management API",
			"input":               "https://raw.githubusercontent.com/QuantumNous/new-api/refs/heads/main/docs/openapi/api.json",
			"output":              "content/docs/zh/api/management",
			"naming":              openapi.NamingRoute,
			"groupbytag":          true,
			"includedescription":  true,
			"addgeneratedcomment": true,
		},
	})
}

// Validate normalizes the origin and checks cross-field constraints.
func (c *Config) Validate() error {
	c.Site.Origin = strings.TrimRight(c.Site.Origin, "/")
	u, err := url.Parse(c.Site.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.origin must be an absolute URL, got %q", c.Site.Origin)
	}
	if u.Path != "" || u.RawQuery != "" {
		return fmt.Errorf("site.origin must not contain a path, got %q", c.Site.Origin)
	}

	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("site.languages: %w", err)
	}

	switch c.Site.PageSource {
	case PageSourceContent, PageSourceDatabase:
	default:
		return fmt.Errorf("site.pagesource must be %q or %q, got %q", PageSourceContent, PageSourceDatabase, c.Site.PageSource)
	}

	if _, err := banner.New(c.Banner); err != nil {
		return fmt.Errorf("banner: %w", err)
	}

	for _, spec := range c.OpenAPI.Specs {
		if spec.Name == "" || spec.Input == "" || spec.Output == "" {
			return fmt.Errorf("openapi.specs: name, input and output are required")
		}
		if _, ok := openapi.Naming(spec.Naming); !ok {
			return fmt.Errorf("openapi.specs[%s]: unknown naming %q", spec.Name, spec.Naming)
		}
	}
	return nil
}

func (c *Config) Registry() (*i18n.Registry, error) {
	return i18n.NewRegistry(c.Site.Languages, c.Site.DefaultLanguage)
}

// GetGenerateInterval returns the OpenAPI regeneration period, or 0 when disabled.
func (c *Config) GetGenerateInterval() time.Duration {
	duration, err := time.ParseDuration(c.OpenAPI.Interval)
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}

func (c *Config) GetFetchTimeout() time.Duration {
	duration, err := time.ParseDuration(c.OpenAPI.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return duration
}

func (c *Config) GenerationSpecs() []openapi.Spec {
	specs := make([]openapi.Spec, 0, len(c.OpenAPI.Specs))
	for _, s := range c.OpenAPI.Specs {
		specs = append(specs, openapi.Spec(s))
	}
	return specs
}
