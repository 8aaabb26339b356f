package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/census-market-etl/internal/observability"
)

// maxBodyBytes bounds a single source download.
const maxBodyBytes = 256 << 20

// ErrBodyTooLarge is returned when a download exceeds its size bound.
var ErrBodyTooLarge = errors.New("source body exceeds size limit")

// readBody reads r fully, failing instead of truncating past limit bytes.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}

// HTTPFetcher downloads sources over HTTP(S). Requests are rate limited and
// responses carrying an ETag or Last-Modified header are cached, so a refresh
// of an unchanged source costs one conditional request.
type HTTPFetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *lruCache
	maxBody    int64
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewHTTPFetcher creates a fetcher allowing perSecond requests per second
// (burst of the same size, at least one) and caching up to cacheSize payloads.
func NewHTTPFetcher(timeout time.Duration, perSecond float64, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *HTTPFetcher {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
		cache:      newLRUCache(cacheSize),
		maxBody:    maxBodyBytes,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch returns the body at url, revalidating a cached copy when one exists.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	cached, haveCached := f.cache.get(url)
	if haveCached {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && haveCached:
		f.metrics.FetchCache.WithLabelValues("hit").Inc()
		f.logger.Debug("source not modified", "url", url)
		return cached.body, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, body)
	}

	f.metrics.FetchCache.WithLabelValues("miss").Inc()

	body, err := readBody(resp.Body, f.maxBody)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	p := payload{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		body:         body,
	}
	if p.validated() && len(body) > 0 {
		f.cache.put(url, p)
	} else {
		f.cache.delete(url)
	}
	return body, nil
}
