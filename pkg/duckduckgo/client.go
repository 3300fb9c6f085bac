package duckduckgo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/entityforge/enrich-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://api.duckduckgo.com"

	// TODO rotating the user agent can help with throttling
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0"

	// throttleRetryAfter is how long the remote expects callers to hold off
	// after answering 202 without a payload.
	throttleRetryAfter = 30 * time.Second
)

// Client queries the DuckDuckGo Instant Answer API.
type Client interface {
	// Search issues a single query for the given term. A nil result with a
	// nil error means "no data" (204/404).
	Search(ctx context.Context, term string) (*SearchResult, error)

	// SearchVariants tries the name variants in order and returns the first
	// result carrying an infobox, or nil when no variant produced one. Any
	// error aborts the whole attempt for this candidate.
	SearchVariants(ctx context.Context, name string) (*SearchResult, error)

	// Verify performs a connectivity self-test against the API.
	Verify(ctx context.Context) VerificationResult
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Instant Answer API client. Many enrichment workers
// share one external endpoint, so requests are rate limited per client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, term string) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "duckduckgo: rate limit wait")
	}

	q := url.Values{}
	q.Set("q", term)
	q.Set("format", "json")
	// Cache-busting timestamp; potentially helps with throttling.
	q.Set("timestamp", strconv.FormatInt(time.Now().UnixNano(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "duckduckgo: send request"))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "duckduckgo: read response"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &resilience.FatalStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "duckduckgo: unmarshal response")
	}

	if result.Infobox != nil {
		return &result, nil
	}

	// 202 without an infobox is the remote's queued/throttled signal. Surface
	// it as a typed backoff hint instead of sleeping in the request path.
	if resp.StatusCode == http.StatusAccepted {
		zap.L().Debug("duckduckgo: throttled", zap.String("term", term))
		return nil, &resilience.ThrottledError{RetryAfter: throttleRetryAfter}
	}

	return &result, nil
}

func (c *httpClient) SearchVariants(ctx context.Context, name string) (*SearchResult, error) {
	for _, variant := range Variants(name) {
		result, err := c.Search(ctx, variant)
		if err != nil {
			return nil, err
		}
		if result.Usable() {
			return result, nil
		}
	}
	return nil, nil
}
