// Package client provides the MediaWiki Action API HTTP client with
// response validation, error classification, optional retry and an optional
// Redis page cache.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/wiki-recent-changes/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the English Wikipedia Action API endpoint.
const DefaultBaseURL = "https://en.wikipedia.org/w/api.php"

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiload_requests_total",
		Help: "Total wiki API requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikiload_request_duration_seconds",
		Help:    "Wiki API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiload_errors_total",
		Help: "Total wiki API errors by class",
	}, []string{"class"})
)

// Client queries a MediaWiki Action API endpoint.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the api.php endpoint.
	BaseURL string

	// User-Agent header (REQUIRED by the Wikimedia User-Agent policy)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// Retry policy. The default is one attempt.
	Retry RetryConfig

	// Cache is optional. When set, page bodies are read from and written to Redis.
	Cache *cache.Manager
}

// DefaultConfig returns a configuration for English Wikipedia.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cfg.Cache,
		config: cfg,
		logger: log.With().Str("component", "client").Logger(),
	}, nil
}

// Query performs one GET against the API with the given parameters and
// returns the validated JSON body.
//
// Errors: *APIError for non-2xx statuses, network failures and MediaWiki
// "error" objects; ErrMalformedResponse when the body is not JSON.
func (c *Client) Query(ctx context.Context, params url.Values) ([]byte, error) {
	key := cache.PageKey{Endpoint: c.config.BaseURL, Params: params}

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("key", key.String()).Dur("age", entry.Age()).Msg("Page served from cache")
			return entry.Body, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	var body []byte
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		var reqErr error
		body, reqErr = c.do(ctx, params)
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, cache.NewPageEntry(body)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache page")
		}
	}

	return body, nil
}

// do executes a single request attempt.
func (c *Client) do(ctx context.Context, params url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", req.URL.String()).Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues("network_error").Inc()
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		c.logger.Error().Err(err).Msg("HTTP request failed")
		return nil, &APIError{ErrorClass: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if class := classifyStatus(resp.StatusCode); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Bytes("body", snippet).
			Msg("API request error")
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorClass: class}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Err: fmt.Errorf("read body: %w", err)}
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w (status %d, %d bytes)", ErrMalformedResponse, resp.StatusCode, len(body))
	}

	if apiErr := gjson.GetBytes(body, "error"); apiErr.IsObject() {
		code := apiErr.Get("code").String()
		class := classifyAPICode(code)
		errorsTotal.WithLabelValues(string(class)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Code:       code,
			Info:       apiErr.Get("info").String(),
		}
	}

	return body, nil
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
