package apiclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/squadcart/core/cache"
)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient  *http.Client
	refresher   Refresher
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      *slog.Logger
	metrics     *Metrics
	maxAttempts int
	dedup       bool
	userAgent   string
}

// WithHTTPClient sets the HTTP client used for API and refresh calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithRefresher replaces the HTTP refresher.
func WithRefresher(r Refresher) Option {
	return func(o *clientOptions) {
		o.refresher = r
	}
}

// WithCache enables response caching for Query.
func WithCache(c cache.Cache) Option {
	return func(o *clientOptions) {
		o.cache = c
	}
}

// WithCacheTTL sets how long Query results stay cached. Zero defers to the
// cache default.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *clientOptions) {
		o.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

// WithRefreshAttempts bounds the refresh loop.
func WithRefreshAttempts(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithRefreshDedup toggles sharing of concurrent refresh calls.
func WithRefreshDedup(enabled bool) Option {
	return func(o *clientOptions) {
		o.dedup = enabled
	}
}

// WithClientUserAgent sets the User-Agent header.
func WithClientUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}
