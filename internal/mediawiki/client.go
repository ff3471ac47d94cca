// Package mediawiki is a client for the MediaWiki action API. The read and
// write capabilities are split into composable interfaces so the sync
// engines (and their test doubles) depend only on what they use.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
)

// PageRevision is the latest revision of one fetched page.
type PageRevision struct {
	Title     string
	PageID    int64
	RevID     int64
	Timestamp string
	Content   string
	Missing   bool
	Redirect  bool
}

// SearchHit is one remote full-text search result.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// EditResult reports a successful edit.
type EditResult struct {
	RevID        int64
	NewTimestamp string
}

// Reader is the read capability of the remote wiki.
type Reader interface {
	AllPages(ctx context.Context, namespaceID int) ([]string, error)
	CategoryMembers(ctx context.Context, category string) ([]string, error)
	RecentChanges(ctx context.Context, since string, namespaceIDs []int) ([]string, error)
	PageContents(ctx context.Context, titles []string) ([]PageRevision, error)
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// Writer extends Reader with authenticated mutations.
type Writer interface {
	Reader
	Login(ctx context.Context) error
	Timestamps(ctx context.Context, titles []string) (map[string]string, error)
	Edit(ctx context.Context, title, text, summary string) (*EditResult, error)
	Delete(ctx context.Context, title, reason string) error
}

// APIError is an error reported by the API itself. It is never retried.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: api error %s: %s", e.Code, e.Info)
}

// Config holds client settings. Zero values fall back to the defaults below.
type Config struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	ReadInterval  time.Duration
	WriteInterval time.Duration
	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Username      string
	Password      string
}

const (
	defaultTimeout       = 30 * time.Second
	defaultReadInterval  = 250 * time.Millisecond
	defaultWriteInterval = 2 * time.Second
	defaultMaxAttempts   = 4
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 15 * time.Second

	// batchSize is the API limit for titles per revisions query.
	batchSize = 50
	listLimit = "500"
)

// Client implements Reader and Writer over api.php.
type Client struct {
	base         *url.URL
	http         *http.Client
	userAgent    string
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter
	maxAttempts  int
	retryDelay   time.Duration
	maxDelay     time.Duration
	username     string
	password     string
	logger       *slog.Logger
}

var _ Writer = (*Client)(nil)

// New validates the base URL and builds a client. A malformed base URL is a
// configuration error and fails construction.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("mediawiki: base url %q must be absolute", cfg.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	readInterval := cfg.ReadInterval
	if readInterval <= 0 {
		readInterval = defaultReadInterval
	}
	writeInterval := cfg.WriteInterval
	if writeInterval <= 0 {
		writeInterval = defaultWriteInterval
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	maxDelay := cfg.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}

	return &Client{
		base:         base,
		http:         &http.Client{Timeout: timeout, Jar: jar},
		userAgent:    cfg.UserAgent,
		readLimiter:  rate.NewLimiter(rate.Every(readInterval), 1),
		writeLimiter: rate.NewLimiter(rate.Every(writeInterval), 1),
		maxAttempts:  maxAttempts,
		retryDelay:   retryDelay,
		maxDelay:     maxDelay,
		username:     cfg.Username,
		password:     cfg.Password,
		logger:       logger,
	}, nil
}

// HasCredentials reports whether bot credentials were configured.
func (c *Client) HasCredentials() bool {
	return c.username != "" && c.password != ""
}

// apiEnvelope is the common response wrapper; each operation decodes its own
// query payload from the raw message.
type apiEnvelope struct {
	Error    *APIError         `json:"error"`
	Continue map[string]string `json:"continue"`
	Query    json.RawMessage   `json:"query"`
	Edit     json.RawMessage   `json:"edit"`
	Login    json.RawMessage   `json:"login"`
}

// do issues one API call through the rate limiter and retry loop. Write
// calls POST and go through the slower write limiter.
func (c *Client) do(ctx context.Context, params url.Values, write bool) (*apiEnvelope, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	limiter := c.readLimiter
	if write {
		limiter = c.writeLimiter
	}
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		env, retryable, err := c.roundTrip(ctx, params, write)
		if err == nil {
			return env, nil
		}
		lastErr = err
		if !retryable || attempt == c.maxAttempts {
			break
		}
		delay := backoff(c.retryDelay, c.maxDelay, attempt)
		c.logger.Warn("mediawiki: request failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (c *Client) roundTrip(ctx context.Context, params url.Values, write bool) (*apiEnvelope, bool, error) {
	var req *http.Request
	var err error
	if write {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.base.String(), strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		u := *c.base
		u.RawQuery = params.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}
	if err != nil {
		return nil, false, fmt.Errorf("mediawiki: build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, retryableTransport(err), fmt.Errorf("mediawiki: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retryableStatus(resp.StatusCode), fmt.Errorf("mediawiki: http status %d", resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, false, fmt.Errorf("mediawiki: decode response: %w", err)
	}
	if env.Error != nil {
		return nil, false, env.Error
	}
	return &env, false, nil
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryableTransport reports whether a transport-level failure is worth
// retrying: timeouts and connection-level resets, but never context
// cancellation.
func retryableTransport(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.EOF)
}

// backoff is exponential from base with a small random jitter, capped.
func backoff(base, max time.Duration, attempt int) time.Duration {
	delay := base << (attempt - 1)
	if delay > max {
		delay = max
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/4 + 1))
	return delay + jitter
}
