// Package metrics exposes the site's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder struct {
	registry        *prom.Registry
	sitemapBuilds   *prom.CounterVec
	sitemapEntries  prom.Gauge
	sitemapDuration prom.Histogram
	generations     *prom.CounterVec
	generatedFiles  *prom.CounterVec
	indexedPages    *prom.GaugeVec
}

// NewRecorder registers all collectors on reg, or on a fresh registry when reg is nil.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	r := &Recorder{
		registry: reg,
		sitemapBuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "sitemap_builds_total",
			Help:      "Sitemap builds by result",
		}, []string{"result"}),
		sitemapEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "sitemap_entries",
			Help:      "Number of entries in the last built sitemap",
		}),
		sitemapDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "sitemap_build_duration_seconds",
			Help:      "Sitemap build duration",
			Buckets:   prom.DefBuckets,
		}),
		generations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "openapi_generations_total",
			Help:      "OpenAPI documentation generations by spec and result",
		}, []string{"spec", "result"}),
		generatedFiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "openapi_generated_files_total",
			Help:      "Files written by OpenAPI generation",
		}, []string{"spec"}),
		indexedPages: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "indexed_pages",
			Help:      "Pages in the page index by locale",
		}, []string{"locale"}),
	}

	reg.MustRegister(r.sitemapBuilds, r.sitemapEntries, r.sitemapDuration,
		r.generations, r.generatedFiles, r.indexedPages)
	return r
}

func (r *Recorder) ObserveSitemap(d time.Duration, entries int, err error) {
	if err != nil {
		r.sitemapBuilds.WithLabelValues("error").Inc()
		return
	}
	r.sitemapBuilds.WithLabelValues("success").Inc()
	r.sitemapEntries.Set(float64(entries))
	r.sitemapDuration.Observe(d.Seconds())
}

func (r *Recorder) ObserveGeneration(spec string, files int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.generations.WithLabelValues(spec, result).Inc()
	r.generatedFiles.WithLabelValues(spec).Add(float64(files))
}

func (r *Recorder) SetIndexedPages(locale string, n int) {
	r.indexedPages.WithLabelValues(locale).Set(float64(n))
}

func (r *Recorder) Registry() *prom.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
