package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/census-market-etl/internal/observability"
)

// Fetcher returns the raw bytes behind a source URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FileFetcher reads local paths and file:// URIs.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(uri, "file://")
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

// ErrSchemeNotConfigured is returned for a URI whose scheme has no fetcher.
var ErrSchemeNotConfigured = errors.New("no fetcher configured for scheme")

// Router dispatches a URI to the fetcher registered for its scheme. Plain
// paths and file:// go to the file fetcher.
type Router struct {
	fetchers map[string]Fetcher
	metrics  *observability.Metrics
}

// NewRouter creates a router. A nil http or s3 fetcher leaves that scheme unsupported.
func NewRouter(file, web, s3 Fetcher, metrics *observability.Metrics) *Router {
	r := &Router{
		fetchers: map[string]Fetcher{"file": file},
		metrics:  metrics,
	}
	if web != nil {
		r.fetchers["http"] = web
		r.fetchers["https"] = web
	}
	if s3 != nil {
		r.fetchers["s3"] = s3
	}
	return r
}

func (r *Router) Fetch(ctx context.Context, uri string) ([]byte, error) {
	scheme := schemeOf(uri)
	f, ok := r.fetchers[scheme]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: %q", ErrSchemeNotConfigured, scheme)
	}

	start := time.Now()
	body, err := f.Fetch(ctx, uri)
	r.metrics.FetchDuration.WithLabelValues(scheme).Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.FetchRequests.WithLabelValues(scheme, "error").Inc()
		return nil, err
	}
	r.metrics.FetchRequests.WithLabelValues(scheme, "success").Inc()
	return body, nil
}

func schemeOf(uri string) string {
	u, err := url.Parse(uri)
	// Single-letter schemes are Windows drive letters.
	if err != nil || len(u.Scheme) <= 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}
