package openapi

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// Fetcher loads schema documents from http(s) URLs or local paths.
type Fetcher struct {
	UserAgent string
	Timeout   time.Duration
}

func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{UserAgent: userAgent, Timeout: timeout}
}

func (f *Fetcher) Fetch(ctx context.Context, input string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		path := strings.TrimPrefix(input, "file://")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
		}
		return data, nil
	}

	c := colly.NewCollector(
		colly.AllowedDomains(u.Hostname()),
	)
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	c.MaxBodySize = 0
	c.SetRequestTimeout(f.Timeout)

	var body []byte
	var fetchErr error
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(input); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch schema %s: %w", input, err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch schema %s: %w", input, fetchErr)
	}
	if body == nil {
		return nil, fmt.Errorf("failed to fetch schema %s: empty response", input)
	}
	return body, nil
}
