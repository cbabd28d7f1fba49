package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/steinbro/overscape-server/pkg/tracing"
)

const (
	// DefaultServerURL is the public Overpass endpoint used when no
	// self-hosted server is configured.
	DefaultServerURL = "https://overpass.kumi.systems/api/interpreter/"

	// DefaultUserAgent identifies this service to the Overpass server.
	DefaultUserAgent = "Overscape/0.1"
)

// RetryOptions configures retry behavior for upstream requests.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions provides sensible defaults for retries.
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// ClientOptions configures an Overpass client.
type ClientOptions struct {
	// ServerURL is the Overpass interpreter endpoint.
	ServerURL string

	// UserAgent is sent on every request.
	UserAgent string

	// RPS and Burst configure the upstream rate limiter.
	RPS   float64
	Burst int

	// Retry controls retry behavior. Zero value means DefaultRetryOptions.
	Retry RetryOptions

	// HTTPClient overrides the default pooled client, mainly for tests.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client issues queries to an Overpass API endpoint with rate limiting,
// retries and instrumentation.
type Client struct {
	serverURL  string
	userAgent  string
	limiter    *rate.Limiter
	retry      RetryOptions
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Overpass client.
func NewClient(opts ClientOptions) *Client {
	if opts.ServerURL == "" {
		opts.ServerURL = DefaultServerURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryOptions
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		serverURL:  opts.ServerURL,
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		retry:      opts.Retry,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// ServerURL returns the configured interpreter endpoint.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Query executes an Overpass QL query and decodes the JSON response.
func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	ctx, span := tracing.StartSpan(ctx, "overpass.query",
		trace.WithAttributes(
			attribute.String(tracing.AttrUpstreamURL, c.serverURL),
			attribute.Int("overpass.query_length", len(query)),
		),
	)
	defer span.End()

	hooks := getMonitoringHooks()

	// Wait for the upstream rate limiter before the first attempt.
	if !c.limiter.Allow() {
		waitStart := time.Now()
		tracing.AddEvent(ctx, "rate_limit_wait")
		if err := c.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, "rate limit wait cancelled")
			return nil, err
		}
		waited := time.Since(waitStart)
		tracing.SetAttributes(ctx, attribute.Int64(tracing.AttrRateLimitWaitMs, waited.Milliseconds()))
		if hooks != nil && hooks.OnRateLimit != nil {
			hooks.OnRateLimit(waited)
		}
	}

	resp, err := c.doWithRetry(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if hooks != nil && hooks.OnError != nil {
			hooks.OnError("request_error")
		}
		return nil, err
	}
	defer resp.Body.Close()

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		if hooks != nil && hooks.OnError != nil {
			hooks.OnError("decode_error")
		}
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}

	span.SetAttributes(attribute.Int("overpass.element_count", len(decoded.Elements)))
	span.SetStatus(codes.Ok, "")
	return &decoded, nil
}

// doWithRetry performs the interpreter request with exponential backoff.
// Requests are rebuilt on every attempt so the body is never reused.
func (c *Client) doWithRetry(ctx context.Context, query string) (*http.Response, error) {
	hooks := getMonitoringHooks()
	logger := c.logger.With("server", c.serverURL)

	var lastErr error
	delay := c.retry.InitialDelay

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			tracing.AddEvent(ctx, "retry_attempt",
				trace.WithAttributes(
					attribute.Int("attempt", attempt+1),
					attribute.Int64("delay_ms", delay.Milliseconds()),
				),
			)
			logger.Info("retrying overpass request",
				"attempt", attempt+1,
				"max_attempts", c.retry.MaxAttempts,
				"delay", delay,
				"last_error", lastErr)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			delay = time.Duration(float64(delay) * c.retry.Multiplier)
			if delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}
		}

		req, err := c.newRequest(ctx, query)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		success := err == nil && resp.StatusCode == http.StatusOK
		if hooks != nil && hooks.OnResponse != nil {
			hooks.OnResponse("interpreter", duration, success)
		}

		if success {
			return resp, nil
		}

		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			logger.Warn("error connecting to overpass", "error", err, "attempt", attempt+1)
			continue
		}

		lastErr = &StatusError{Code: resp.StatusCode}
		logger.Warn("received error status from overpass",
			"status", resp.StatusCode,
			"attempt", attempt+1)
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("failed to close response body", "error", cerr)
		}

		// Client errors will not succeed on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// newRequest builds the interpreter GET request with the query in the
// data parameter, matching the form the Overpass API documents.
func (c *Client) newRequest(ctx context.Context, query string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating overpass request: %w", err)
	}
	req.URL.RawQuery = url.Values{"data": {query}}.Encode()
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// Health checks whether the Overpass endpoint is responsive by issuing
// a minimal metadata query.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := c.newRequest(ctx, "[out:json];out meta;")
	if err != nil {
		return fmt.Errorf("creating overpass health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("overpass health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("overpass health check returned status %d", resp.StatusCode)
	}
	return nil
}
