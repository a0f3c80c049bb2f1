package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "musemcp/1.0 (narrative-to-music analysis; +https://github.com/versebound/musemcp)"

// Freshness classifies a URL against the cache before fetching.
type Freshness int

const (
	Fresh Freshness = iota
	Stale
	Missing
)

// FetchOptions tune the fetcher. Zero values fall back to defaults.
type FetchOptions struct {
	Timeout    time.Duration // per-request timeout (default 30s)
	MaxRetries int           // retry attempts after the first try (default 3)
	RetryDelay time.Duration // initial backoff, doubled per attempt (default 1s)
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	return o
}

// FetchResult is the outcome of fetching one URL.
type FetchResult struct {
	URL        string
	Body       []byte
	Status     int
	NotModified bool // 304: cached copy is still current
	FetchedAt  time.Time
}

// Fetcher retrieves wiki pages over HTTPS with retry and conditional GET.
// It never evicts cached content: on permanent failure it only records the
// failure in metadata, leaving stale data readable.
type Fetcher struct {
	client *resty.Client
	store  *Store
	logger *slog.Logger
	opts   FetchOptions
}

// NewFetcher creates a fetcher writing through the given store.
func NewFetcher(store *Store, opts FetchOptions, logger *slog.Logger) *Fetcher {
	opts = opts.withDefaults()
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryDelay).
		SetRetryMaxWaitTime(opts.RetryDelay * 8).
		SetHeader("User-Agent", userAgent)
	// Retry on transport errors and 5xx; a 4xx is permanent.
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500
	})
	return &Fetcher{
		client: client,
		store:  store,
		logger: logger,
		opts:   opts,
	}
}

// Classify decides whether url needs fetching given the TTL.
func (f *Fetcher) Classify(url string, ttl time.Duration) Freshness {
	if _, err := f.store.Meta(url); err != nil {
		return Missing
	}
	if f.store.IsFresh(url, ttl) {
		return Fresh
	}
	return Stale
}

// Fetch retrieves url, honoring If-Modified-Since from cached metadata.
// The body is handed back for parsing; the page itself is written to the
// store on 200. On 304 only metadata is refreshed.
func (f *Fetcher) Fetch(ctx context.Context, url, category string) (*FetchResult, error) {
	req := f.client.R().SetContext(ctx)

	if meta, err := f.store.Meta(url); err == nil && !meta.FetchedAt.IsZero() {
		req.SetHeader("If-Modified-Since", meta.FetchedAt.UTC().Format(http.TimeFormat))
		if meta.ETag != "" {
			req.SetHeader("If-None-Match", meta.ETag)
		}
	}

	resp, err := req.Get(url)
	now := time.Now().UTC()
	if err != nil {
		f.recordFailure(url, category, 0, err)
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotModified:
		// Cached copy is current; refresh the timestamp only.
		meta, merr := f.store.Meta(url)
		if merr == nil {
			meta.FetchedAt = now
			meta.LastStatus = http.StatusNotModified
			meta.LastError = ""
			if err := f.store.WriteMeta(url, *meta); err != nil {
				f.logger.Warn("failed to refresh cache metadata", "url", url, "error", err)
			}
		}
		return &FetchResult{URL: url, Status: resp.StatusCode(), NotModified: true, FetchedAt: now}, nil

	case resp.IsSuccess():
		body := resp.Body()
		meta := PageMeta{
			Category:   category,
			FetchedAt:  now,
			ETag:       resp.Header().Get("ETag"),
			LastStatus: resp.StatusCode(),
		}
		if err := f.store.Write(url, body, meta); err != nil {
			return nil, fmt.Errorf("caching %s: %w", url, err)
		}
		f.logger.Debug("fetched wiki page", "url", url, "bytes", len(body))
		return &FetchResult{URL: url, Body: body, Status: resp.StatusCode(), FetchedAt: now}, nil

	default:
		err := fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode())
		f.recordFailure(url, category, resp.StatusCode(), err)
		return nil, err
	}
}

// recordFailure stores the failure in metadata without evicting content.
func (f *Fetcher) recordFailure(url, category string, status int, cause error) {
	meta, err := f.store.Meta(url)
	if err != nil {
		meta = &PageMeta{Category: category}
	}
	meta.LastStatus = status
	meta.LastError = cause.Error()
	if err := f.store.WriteMeta(url, *meta); err != nil {
		f.logger.Warn("failed to record fetch failure", "url", url, "error", err)
	}
	f.logger.Warn("wiki fetch failed", "url", url, "status", status, "error", cause)
}

// ValidateURL performs a lightweight HEAD check.
func (f *Fetcher) ValidateURL(ctx context.Context, url string) bool {
	resp, err := f.client.R().SetContext(ctx).Head(url)
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}
