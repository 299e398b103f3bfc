package api

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantumnous/docsite/internal/banner"
	"github.com/quantumnous/docsite/internal/content"
	"github.com/quantumnous/docsite/internal/i18n"
	"github.com/quantumnous/docsite/internal/metrics"
	"github.com/quantumnous/docsite/internal/models"
	"github.com/quantumnous/docsite/internal/openapi"
	"github.com/quantumnous/docsite/internal/sitemap"
)

// RawSource serves the Markdown body of a page.
type RawSource interface {
	Raw(ctx context.Context, locale string, slugs []string) ([]byte, models.Page, error)
}

// PageRanger pages through a locale without loading every page,
// as the database page source does.
type PageRanger interface {
	PageRange(ctx context.Context, locale string, limit, offset int) ([]models.Page, int, error)
}

type Handler struct {
	registry *i18n.Registry
	builder  *sitemap.Builder
	pages    sitemap.PageSource
	raw      RawSource
	banner   *banner.Banner
	runner   *openapi.Runner
	specs    []openapi.Spec
	recorder *metrics.Recorder
}

type HandlerDeps struct {
	Registry *i18n.Registry
	Builder  *sitemap.Builder
	Pages    sitemap.PageSource
	Raw      RawSource
	Banner   *banner.Banner
	Runner   *openapi.Runner
	Specs    []openapi.Spec
	Recorder *metrics.Recorder
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PaginationResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalCount int         `json:"total_count,omitempty"`
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		registry: deps.Registry,
		builder:  deps.Builder,
		pages:    deps.Pages,
		raw:      deps.Raw,
		banner:   deps.Banner,
		runner:   deps.Runner,
		specs:    deps.Specs,
		recorder: deps.Recorder,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/sitemap.xml", h.SitemapXML)

	if h.recorder != nil {
		router.GET("/metrics", gin.WrapH(h.recorder.Handler()))
	}

	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		api.GET("/sitemap", h.SitemapJSON)
		api.GET("/banner", h.GetBanner)
		api.GET("/pages", h.ListPages)

		if h.runner != nil {
			api.GET("/openapi/runs", h.ListGenerationRuns)
			api.POST("/openapi/regenerate", h.RegenerateOpenAPI)
		}
	}

	// Only configured languages get routes, like /:lang(en|zh|ja)/.
	for _, lang := range h.registry.Languages {
		group := router.Group("/"+lang, localeHeaders(lang))
		group.GET("/docs/*path", h.GetDocsMDX)
		group.GET("/llms.mdx/*path", h.GetRawPage)
	}
}

// localeHeaders tags locale-prefixed responses with their language.
// Handlers below it always send an explicit utf-8 charset.
func localeHeaders(lang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Language", lang)
		c.Set("lang", lang)
		c.Next()
	}
}

func (h *Handler) buildSitemap(ctx context.Context) ([]models.SitemapEntry, error) {
	start := time.Now()
	entries, err := h.builder.Build(ctx)
	if h.recorder != nil {
		h.recorder.ObserveSitemap(time.Since(start), len(entries), err)
	}
	return entries, err
}

func (h *Handler) SitemapXML(c *gin.Context) {
	entries, err := h.buildSitemap(c.Request.Context())
	if err != nil {
		log.Printf("Failed to build sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build sitemap"})
		return
	}

	var buf bytes.Buffer
	if err := sitemap.WriteXML(&buf, entries, h.registry.Languages); err != nil {
		log.Printf("Failed to encode sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to encode sitemap"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", buf.Bytes())
}

func (h *Handler) SitemapJSON(c *gin.Context) {
	entries, err := h.buildSitemap(c.Request.Context())
	if err != nil {
		log.Printf("Failed to build sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build sitemap"})
		return
	}
	if entries == nil {
		entries = []models.SitemapEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetBanner(c *gin.Context) {
	c.JSON(http.StatusOK, h.banner.Content(c.Query("lang")))
}

func (h *Handler) ListPages(c *gin.Context) {
	lang := c.DefaultQuery("lang", h.registry.DefaultLanguage)
	if !h.registry.Has(lang) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unsupported language"})
		return
	}

	page, limit := getPaginationParams(c)
	offset := (page - 1) * limit

	data, total, err := h.pageRange(c.Request.Context(), lang, limit, offset)
	if err != nil {
		log.Printf("Failed to list pages for %s: %v", lang, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch pages"})
		return
	}

	c.JSON(http.StatusOK, PaginationResponse{
		Data:       data,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
	})
}

func (h *Handler) pageRange(ctx context.Context, lang string, limit, offset int) ([]models.Page, int, error) {
	if r, ok := h.pages.(PageRanger); ok {
		return r.PageRange(ctx, lang, limit, offset)
	}

	pages, err := h.pages.Pages(ctx, lang)
	if err != nil {
		return nil, 0, err
	}
	data := []models.Page{}
	if offset < len(pages) {
		end := offset + limit
		if end > len(pages) {
			end = len(pages)
		}
		data = pages[offset:end]
	}
	return data, len(pages), nil
}

// GetDocsMDX rewrites /{lang}/docs/{path}.mdx to the raw page handler.
// Rendering HTML pages is left to the frontend.
func (h *Handler) GetDocsMDX(c *gin.Context) {
	path := c.Param("path")
	if !strings.HasSuffix(path, ".mdx") {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Page not found"})
		return
	}
	h.serveRaw(c, strings.TrimSuffix(path, ".mdx"))
}

func (h *Handler) GetRawPage(c *gin.Context) {
	h.serveRaw(c, c.Param("path"))
}

func (h *Handler) serveRaw(c *gin.Context, path string) {
	lang := c.GetString("lang")
	var slugs []string
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" {
			slugs = append(slugs, seg)
		}
	}

	body, page, err := h.raw.Raw(c.Request.Context(), lang, slugs)
	if errors.Is(err, content.ErrPageNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Page not found"})
		return
	}
	if err != nil {
		log.Printf("Failed to read page %s/%s: %v", lang, path, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read page"})
		return
	}

	var buf bytes.Buffer
	if page.Data.Title != "" && !startsWithHeading(body) {
		buf.WriteString("# " + page.Data.Title + "\n\n")
	}
	buf.Write(body)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
}

func startsWithHeading(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n"), []byte("# "))
}

func (h *Handler) ListGenerationRuns(c *gin.Context) {
	runs := h.runner.LastRuns()
	if runs == nil {
		runs = []*models.GenerationRun{}
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) RegenerateOpenAPI(c *gin.Context) {
	err := h.runner.Start(h.specs, func(runs []*models.GenerationRun, err error) {
		for _, run := range runs {
			log.Printf("Generation %s for %s: %s (%d files)", run.ID, run.Spec, run.Status, run.Files)
		}
		if err != nil {
			log.Printf("OpenAPI generation failed: %v", err)
		}
	})
	if errors.Is(err, openapi.ErrRunInProgress) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Generation already in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start generation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "specs": len(h.specs)})
}

// Utility functions
func getPaginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	return page, limit
}
