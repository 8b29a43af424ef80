// Package wiki implements a MediaWiki Action API client covering the page
// operations wikiext builds on: existence and redirect checks, backlink and
// template enumeration, file usage, and bot-section editing.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wikimech/wikiext/internal/infra"
	"github.com/wikimech/wikiext/metrics"
)

// MaxConcurrentRequests limits parallel API calls to prevent overwhelming the server
const MaxConcurrentRequests = 3

// Cache TTLs for the different query kinds
var cacheTTL = map[string]time.Duration{
	"siteinfo":  60 * time.Minute, // Namespace tables rarely change
	"page_info": 2 * time.Minute,  // Page metadata
	"page_text": 5 * time.Minute,  // Page content
	"backlinks": 5 * time.Minute,  // Redirect enumeration
	"templates": 5 * time.Minute,  // Transclusion lists
	"fileusage": 5 * time.Minute,  // File usage lists
}

// Client handles communication with the MediaWiki API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger

	// Authentication state
	mu          sync.RWMutex
	loggedIn    bool
	csrfToken   string
	tokenExpiry time.Time

	// Rate limiting - semaphore to control concurrent requests
	semaphore chan struct{}

	// Response cache and resilience
	cache   *infra.Cache
	dedup   *infra.RequestDeduplicator
	breaker *infra.CircuitBreaker
}

// NewClient creates a new MediaWiki API client
func NewClient(config *Config, logger *slog.Logger) *Client {
	jar, _ := cookiejar.New(nil)

	// Configure HTTP transport for connection reuse
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	cache := infra.NewCache(infra.DefaultMaxCacheEntries)
	cache.OnEvict(func(n int) {
		metrics.CacheEvictions.Add(float64(n))
	})

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Jar:       jar,
			Transport: transport,
		},
		logger:    logger,
		semaphore: make(chan struct{}, MaxConcurrentRequests),
		cache:     cache,
		dedup:     infra.NewRequestDeduplicator(),
		breaker:   infra.NewCircuitBreaker(),
	}
}

// Site returns the configured site identifier, defaulting to the API host.
func (c *Client) Site() string {
	if c.config.Site != "" {
		return c.config.Site
	}
	if u, err := url.Parse(c.config.BaseURL); err == nil {
		return u.Host
	}
	return c.config.BaseURL
}

// Close releases background resources held by the client.
func (c *Client) Close() {
	c.cache.Close()
}

// getCached retrieves a cached value if it exists and hasn't expired
func (c *Client) getCached(key string) (interface{}, bool) {
	data, ok := c.cache.Get(key)
	metrics.RecordCacheAccess(ok)
	if ok {
		metrics.SetCacheSize(c.cache.Size())
	}
	return data, ok
}

// setCache stores a value in the cache using the TTL configured for ttlKey
func (c *Client) setCache(key string, data interface{}, ttlKey string) {
	ttl := 5 * time.Minute // default
	if t, ok := cacheTTL[ttlKey]; ok {
		ttl = t
	}
	c.cache.Set(key, data, ttl)
	metrics.SetCacheSize(c.cache.Size())
}

// InvalidateCachePrefix removes all cache entries with keys starting with prefix
func (c *Client) InvalidateCachePrefix(prefix string) {
	c.cache.DeletePrefix(prefix)
	metrics.SetCacheSize(c.cache.Size())
}

// query runs a read-only action=query request, coalescing identical
// concurrent requests through the deduplicator.
func (c *Client) query(ctx context.Context, params url.Values) (map[string]interface{}, error) {
	params.Set("action", "query")
	key := params.Encode()

	result, _, err := c.dedup.Do(ctx, key, func() (interface{}, error) {
		return c.apiRequest(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]interface{}), nil
}

// apiRequest makes a request to the MediaWiki API with rate limiting,
// circuit breaking and retries
func (c *Client) apiRequest(ctx context.Context, params url.Values) (map[string]interface{}, error) {
	if !c.breaker.Allow() {
		stats := c.breaker.Stats()
		return nil, infra.ErrCircuitOpen{
			State:    stats.State,
			RetryAt:  stats.LastFailure.Add(30 * time.Second),
			Failures: stats.ConsecutiveFails,
		}
	}

	// Acquire semaphore slot (rate limiting)
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	default:
		metrics.RateLimitWaits.Inc()
		select {
		case c.semaphore <- struct{}{}:
			defer func() { <-c.semaphore }()
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while waiting for rate limiter: %w", ctx.Err())
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	params.Set("format", "json")
	action := params.Get("action")
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.WikiAPIRetries.WithLabelValues(action).Inc()
			// Exponential backoff with context awareness
			backoff := time.Duration(attempt*attempt) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			}
		}

		// Create fresh request for each attempt (body is consumed on read)
		req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL, strings.NewReader(params.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn("API request failed, retrying",
				"attempt", attempt+1,
				"max_retries", c.config.MaxRetries,
				"error", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			// Don't retry client errors (4xx) except rate limiting (429)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				c.breaker.RecordFailure()
				metrics.RecordAPICall(action, time.Since(start).Seconds(), false, strconv.Itoa(resp.StatusCode))
				return nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
			}

			// Honor Retry-After on rate limiting
			if resp.StatusCode == http.StatusTooManyRequests {
				if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
					if seconds, parseErr := strconv.Atoi(retryAfter); parseErr == nil {
						c.logger.Warn("Rate limited, waiting",
							"retry_after", seconds,
							"attempt", attempt+1)
						select {
						case <-time.After(time.Duration(seconds) * time.Second):
						case <-ctx.Done():
							return nil, fmt.Errorf("context cancelled during rate limit wait: %w", ctx.Err())
						}
						continue
					}
				}
			}

			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
			c.logger.Warn("API returned non-OK status",
				"status", resp.StatusCode,
				"attempt", attempt+1)
			continue
		}

		var result map[string]interface{}
		if err := json.Unmarshal(body, &result); err != nil {
			c.breaker.RecordFailure()
			metrics.RecordAPICall(action, time.Since(start).Seconds(), false, "badjson")
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		// Check for API error envelope
		if errObj, ok := result["error"].(map[string]interface{}); ok {
			code := getString(errObj["code"])
			info := getString(errObj["info"])
			c.breaker.RecordSuccess() // The API itself is healthy
			metrics.RecordAPICall(action, time.Since(start).Seconds(), false, code)
			return nil, &APIError{Code: code, Info: info}
		}

		c.breaker.RecordSuccess()
		metrics.RecordAPICall(action, time.Since(start).Seconds(), true, "")
		return result, nil
	}

	c.breaker.RecordFailure()
	metrics.RecordAPICall(action, time.Since(start).Seconds(), false, "unreachable")
	return nil, lastErr
}

// ========== JSON extraction helpers ==========
// The Action API answers with loosely typed JSON; these keep the call sites
// readable.

func getString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func getInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}

func getInt64(v interface{}) int64 {
	f, _ := v.(float64)
	return int64(f)
}

func getMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func getSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

// queryPages extracts the single-page object from a query response keyed by
// page ID (the Action API returns pages as an object, not a list).
func queryPages(resp map[string]interface{}) (map[string]interface{}, error) {
	query := getMap(resp["query"])
	if query == nil {
		return nil, fmt.Errorf("unexpected API response: missing 'query' object")
	}
	pages := getMap(query["pages"])
	if pages == nil {
		return nil, fmt.Errorf("unexpected API response: missing 'pages' object")
	}
	for _, pageData := range pages {
		if page := getMap(pageData); page != nil {
			return page, nil
		}
	}
	return nil, fmt.Errorf("unexpected API response: empty 'pages' object")
}
