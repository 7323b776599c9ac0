package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/mmcdole/komsync/internal/domain"
)

const (
	defaultTimeout           = 20 * time.Second
	defaultRequestsPerSecond = 4
	defaultMaxRetries        = 3
	defaultRetryDelay        = 500 * time.Millisecond
	userAgent                = "komsync/1.0"
)

// Options configures an HTTPTransport
type Options struct {
	RequestsPerSecond float64 // <= 0 uses the default
	Timeout           time.Duration
	MaxRetries        int // Retries after the first attempt, 5xx only
	RetryDelay        time.Duration
	Username          string // Basic auth, optional
	Password          string
}

// HTTPTransport is a Transport over net/http with a request rate limit and
// exponential backoff on server errors
type HTTPTransport struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	opts       Options
	logger     *slog.Logger
}

// NewHTTPTransport creates a new rate-limited transport
func NewHTTPTransport(opts Options, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		opts:    opts,
		logger:  logger,
	}
}

// Schedule waits for a rate-limit slot and performs the request.
// 5xx responses are retried with exponential backoff (500ms, 1s, 2s by default).
func (t *HTTPTransport) Schedule(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	reqURL := EncodeURL(req)

	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		return t.do(ctx, method, reqURL, attempt)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.opts.RetryDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 4 * t.opts.RetryDelay

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(t.opts.MaxRetries+1)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			t.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL, "error", err)
		}),
	)
	if err != nil {
		if attempt > t.opts.MaxRetries {
			t.logger.Error("request failed after retries", "error", err, "url", reqURL, "attempts", attempt)
		}
		return nil, err
	}
	return resp, nil
}

// do performs a single attempt. Errors that must not be retried are
// wrapped with backoff.Permanent.
func (t *HTTPTransport) do(ctx context.Context, method, reqURL string, attempt int) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", domain.ErrTransport, err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: failed to create request: %w", domain.ErrTransport, err))
	}
	httpReq.Header.Set("Accept", "application/json, text/html;q=0.9")
	httpReq.Header.Set("User-Agent", userAgent)
	if t.opts.Username != "" {
		httpReq.SetBasicAuth(t.opts.Username, t.opts.Password)
	}

	t.logger.Debug("request", "method", method, "url", reqURL, "attempt", attempt)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.logger.Error("request failed", "error", err, "url", reqURL)
		return nil, backoff.Permanent(fmt.Errorf("%w: %w: %w", domain.ErrTransport, domain.ErrServerOffline, err))
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: failed to read response: %w", domain.ErrTransport, err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", domain.ErrTransport, domain.ErrAuthFailed))
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", domain.ErrTransport, domain.ErrItemNotFound))
	case resp.StatusCode >= 500:
		t.logger.Warn("server error, will retry",
			"status", resp.StatusCode,
			"attempt", attempt,
			"maxRetries", t.opts.MaxRetries,
			"url", reqURL,
		)
		return nil, fmt.Errorf("%w: server error: %d", domain.ErrTransport, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		t.logger.Error("request error", "status", resp.StatusCode, "url", reqURL)
		return nil, backoff.Permanent(fmt.Errorf("%w: unexpected status code: %d", domain.ErrTransport, resp.StatusCode))
	}

	return &Response{Status: resp.StatusCode, Data: body}, nil
}
