// Package transport is the HTTP client shared by every remote source and
// enhancer. It identifies itself with a User-Agent, paces requests with a
// rate limiter, bounds response size and retries transient failures with
// exponential backoff. Exhausting the retry budget yields an
// *errors.RetryError, which callers treat as fatal for the run.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
)

// Client performs paced, retried HTTP requests.
type Client struct {
	http       *http.Client
	auth       Authenticator
	limiter    *rate.Limiter
	name       string
	userAgent  string
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	maxBody    int64
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithName sets the provider name reported in errors and logs.
func WithName(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithAuth sets the authenticator applied to every request.
func WithAuth(auth Authenticator) Option {
	return func(c *Client) {
		if auth != nil {
			c.auth = auth
		}
	}
}

// WithMinInterval spaces requests at least d apart. Zero disables pacing.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetries sets the total number of attempts per request.
func WithRetries(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
	}
}

// WithBackoff sets the first retry delay and its ceiling.
func WithBackoff(initial, ceiling time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.backoff = initial
		}
		if ceiling > 0 {
			c.maxBackoff = ceiling
		}
	}
}

// withSleep replaces the wait between attempts. Tests use it to avoid real
// delays.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// New creates a transport client with defaults from the constants package.
func New(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:       NoAuth{},
		name:       "http",
		userAgent:  constants.UserAgent,
		maxRetries: constants.MaxRetries,
		backoff:    constants.RetryBackoff,
		maxBackoff: constants.MaxRetryBackoff,
		maxBody:    constants.MaxResponseBytes,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the response body. Transient failures are
// retried; a non-retryable status returns an *errors.APIError at once.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	return c.Do(ctx, req)
}

// GetJSON fetches url and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", c.name, err)
	}
	return nil
}

// Do sends req with retries and returns the body of the successful
// response. req must not carry a body.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	c.prepare(req)
	target := redact(req, c.auth)
	logger := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, err := c.attempt(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !errors.IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		wait := c.delay(attempt, err)
		logger.Warn().
			Err(err).
			Str("url", target).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Request failed, retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, errors.NewRetryError("GET "+target, c.maxRetries, lastErr)
}

func (c *Client) prepare(req *http.Request) {
	c.auth.Apply(req)
	req.Header.Set("User-Agent", c.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	}
}

// attempt performs a single request.
func (c *Client) attempt(ctx context.Context, req *http.Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.http.Do(req.Clone(ctx))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errors.APIError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Endpoint:   redact(req, c.auth),
			Message:    snippet(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	return body, nil
}

// delay returns the wait before the next attempt: exponential from the
// initial backoff, raised to any Retry-After the server sent, capped at
// the ceiling.
func (c *Client) delay(attempt int, err error) time.Duration {
	wait := c.backoff << (attempt - 1)
	if wait <= 0 || wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > wait {
		wait = min(apiErr.RetryAfter, c.maxBackoff)
	}
	return wait
}

// parseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	return fmt.Sprintf("transport.Client(%s, attempts=%d)", c.name, c.maxRetries)
}
