// Package commonsvotes is a read-only client for the UK Commons Votes API
package commonsvotes

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	perr "opengov/internal/platform/errors"
	"opengov/internal/platform/logger"
	"opengov/internal/services/divisions/domain"
)

const (
	baseURLDefault   = "https://commonsvotes-api.parliament.uk/data"
	defaultTimeout   = 10 * time.Second
	defaultUA        = "opengov-bot"
	defaultMaxRetry  = 2
	defaultRetryBase = 500 * time.Millisecond
	maxBodyBytes     = 4 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string

	// Timeout caps a single HTTP exchange; callers bound the whole call with ctx
	Timeout time.Duration

	// Retry config for transport errors, 5xx and 429
	MaxRetries int
	RetryBase  time.Duration

	// HTTPClient overrides the default client (tests)
	HTTPClient *http.Client
}

// Client implements domain.SourcePort over HTTP. It keeps no cache
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

var _ domain.SourcePort = (*Client)(nil)

// NewClient creates a Client with sane defaults. MaxRetries < 0 disables retries
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	switch {
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	case o.MaxRetries == 0:
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http: hc,
		opts: o,
		log:  *logger.Named("commonsvotes"),
		now:  time.Now,
	}
}

// get issues a GET with retries and returns the body of a 2xx response, capped.
// Errors carry a perr code; callers mark them with a domain kind
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.opts.BaseURL + path
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeTimeout, "commonsvotes %s", path)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "commonsvotes new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil || !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "commonsvotes %s failed", path)
			}
			if werr := c.wait(ctx, c.backoff(attempts), attempts, "commonsvotes transport error retrying"); werr != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "commonsvotes %s failed", path)
			}
			attempts++
			continue
		}

		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("commonsvotes http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer func() { _ = resp.Body.Close() }()
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "commonsvotes read %s", path)
			}
			if len(body) > maxBodyBytes {
				return nil, perr.Newf(perr.ErrorCodeJSON, "commonsvotes %s body exceeds %d bytes", path, maxBodyBytes)
			}
			return body, nil

		case resp.StatusCode == http.StatusNotFound:
			_ = drainAndClose(resp.Body)
			return nil, perr.NotFoundf("commonsvotes %s not found", path)

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			code := perr.ErrorCodeUnavailable
			if resp.StatusCode == http.StatusTooManyRequests {
				code = perr.ErrorCodeTooManyRequests
			}
			wait := retryAfter(resp.Header)
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, perr.Newf(code, "commonsvotes %s status %d", path, resp.StatusCode)
			}
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if err := c.wait(ctx, wait, attempts, "commonsvotes transient status retrying"); err != nil {
				return nil, perr.Newf(code, "commonsvotes %s status %d", path, resp.StatusCode)
			}
			attempts++

		default:
			// read a small tail for diagnostics then return
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, perr.Newf(perr.ErrorCodeUnavailable, "commonsvotes %s unexpected status %d body %s", path, resp.StatusCode, string(tail))
		}
	}
}

// wait sleeps d unless ctx ends first
func (c *Client) wait(ctx context.Context, d time.Duration, attempt int, msg string) error {
	c.log.Warn().Dur("retry_in", d).Int("attempt", attempt).Msg(msg)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if ceiling := 30 * time.Second; d > ceiling || d <= 0 {
		return ceiling
	}
	return d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

// retryAfter reads a delay-seconds Retry-After header
func retryAfter(h http.Header) time.Duration {
	s := strings.TrimSpace(h.Get("Retry-After"))
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
