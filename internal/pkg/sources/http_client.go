package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/metrics"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
)

const maxBodySize = 16 << 20

// StatusError is a non-200 upstream response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// HTTPClient is shared by the API sources. Every host gets its own token
// bucket and circuit breaker; successful bodies are cached when a cache is set.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	limit     rate.Limit
	burst     int
	failures  uint32
	openFor   time.Duration
	retries   int
	backoff   time.Duration
	cache     storage.Cache
	metrics   *metrics.Registry

	mu    sync.Mutex
	hosts map[string]*hostGuard
}

type hostGuard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

type ClientOption func(*HTTPClient)

func WithCache(c storage.Cache) ClientOption {
	return func(h *HTTPClient) { h.cache = c }
}

func WithMetrics(m *metrics.Registry) ClientOption {
	return func(h *HTTPClient) { h.metrics = m }
}

func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(h *HTTPClient) { h.retries, h.backoff = n, backoff }
}

func NewHTTPClient(cfg config.SourcesConfig, opts ...ClientOption) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		limit:     limit,
		burst:     burst,
		failures:  failures,
		openFor:   cfg.BreakerTimeout,
		retries:   2,
		backoff:   500 * time.Millisecond,
		hosts:     make(map[string]*hostGuard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) guard(host string) *hostGuard {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.hosts[host]; ok {
		return g
	}
	g := &hostGuard{
		limiter: rate.NewLimiter(c.limit, c.burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    host,
			Timeout: c.openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= c.failures
			},
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return !se.retryable()
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("Source circuit breaker changed state", "host", name, "from", from.String(), "to", to.String())
			},
		}),
	}
	c.hosts[host] = g
	return g
}

// Get fetches rawURL and returns the body.
func (c *HTTPClient) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	key := cacheKey(rawURL)
	if c.cache != nil {
		data, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("Source cache read failed", "host", u.Host, "error", err)
		}
		c.metrics.ObserveCache(ok)
		if ok {
			return data, nil
		}
	}

	g := c.guard(u.Host)
	var body []byte
	for attempt := 0; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		start := time.Now()
		res, err := g.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, rawURL, header)
		})
		c.metrics.ObserveSourceRequest(u.Host, err, time.Since(start))
		if err == nil {
			body = res.([]byte)
			break
		}
		if attempt >= c.retries || !shouldRetry(ctx, err) {
			return nil, err
		}

		wait := c.backoff * time.Duration(attempt+1)
		slog.Debug("Retrying source request", "host", u.Host, "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			slog.Warn("Source cache write failed", "host", u.Host, "error", err)
		}
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the body into v.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, header http.Header, v any) error {
	body, err := c.Get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", redact(rawURL), err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error prints the full URL, query string included.
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, fmt.Errorf("do request: %s %s: %w", ue.Op, redact(rawURL), ue.Err)
		}
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: redact(rawURL), Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return true
}

func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// redact drops query parameters, which may carry API keys, from logged URLs.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}
