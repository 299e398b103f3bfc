package main

import (
	"context"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/quantumnous/docsite/config"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path (searches ./config.yaml and ./config/config.yaml when empty)"`
	Verbose bool   `short:"v" help:"Log file and line of each message"`

	Serve struct {
		Watch bool `short:"w" help:"Re-index the page database when content changes"`
	} `cmd:"" help:"Serve the sitemap, banner, raw markdown and OpenAPI endpoints"`

	Sitemap struct {
		Output string `short:"o" help:"Write the sitemap to this file instead of stdout"`
		JSON   bool   `help:"Write JSON entries instead of XML"`
	} `cmd:"" help:"Build the sitemap once"`

	Index struct{} `cmd:"" help:"Scan the content tree and update the page database"`

	Openapi struct {
		Spec []string `short:"s" help:"Only generate the named specs"`
	} `cmd:"" help:"Generate MDX pages from the configured OpenAPI schemas"`

	Verify struct {
		URL     string `short:"u" help:"Sitemap URL (defaults to <site.origin>/sitemap.xml)"`
		Samples int    `short:"n" help:"Number of pages to fetch and check" default:"5"`
	} `cmd:"" help:"Check a published sitemap and the hreflang tags of sampled pages"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("docsite"),
		kong.Description("Documentation site backend"),
		kong.UsageOnError(),
	)

	if CLI.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Load configuration
	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch ctx.Command() {
	case "serve":
		err = runServe(cfg, CLI.Serve.Watch)
	case "sitemap":
		err = runSitemap(context.Background(), cfg, CLI.Sitemap.Output, CLI.Sitemap.JSON)
	case "index":
		err = runIndex(context.Background(), cfg)
	case "openapi":
		err = runOpenAPI(context.Background(), cfg, CLI.Openapi.Spec)
	case "verify":
		var ok bool
		ok, err = runVerify(context.Background(), cfg, CLI.Verify.URL, CLI.Verify.Samples)
		if err == nil && !ok {
			os.Exit(2)
		}
	}
	if err != nil {
		log.Fatalf("%s failed: %v", ctx.Command(), err)
	}
}
