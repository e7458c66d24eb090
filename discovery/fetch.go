// Package discovery finds articles on the news site: it fetches listing and
// detail pages, pages through the listing until enough unseen articles are
// collected, and falls back to the homepage or a feed when the listing
// yields nothing new.
package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/pevans/gamingnews/logger"
)

const maxBodyBytes = 20 << 20

// DefaultUserAgents are rotated across requests.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
}

// HTTPError is returned for responses outside the 2xx range.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	UserAgents []string
	Timeout    time.Duration
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries   int
	RetryBackoff time.Duration
	// DebugDir receives raw HTML snapshots. Empty disables snapshots.
	DebugDir      string
	RespectRobots bool
}

// Fetcher performs GET requests with browser-like headers, retrying
// transient failures with exponential backoff.
type Fetcher struct {
	client *http.Client
	cfg    FetcherConfig
	rng    *rand.Rand
	sleep  SleepFunc
	robots *RobotsPolicy
	log    logger.Logger
}

// NewFetcher creates a fetcher. rng picks user agents; sleep is used for
// retry backoff.
func NewFetcher(cfg FetcherConfig, rng *rand.Rand, sleep SleepFunc, log logger.Logger) *Fetcher {
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultUserAgents
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if rng == nil {
		rng = NewRand(0)
	}
	if sleep == nil {
		sleep = Sleep
	}
	log = logger.OrNop(log)

	f := &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		rng:    rng,
		sleep:  sleep,
		log:    log,
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsPolicy(f.client, RobotsAgent, log)
	}

	return f
}

// UserAgent picks the user agent for the next request.
func (f *Fetcher) UserAgent() string {
	return f.cfg.UserAgents[f.rng.IntN(len(f.cfg.UserAgents))]
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.8,en-US;q=0.5,en;q=0.3")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// Get fetches rawURL and returns its body decoded to UTF-8.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return f.fetch(ctx, rawURL, true)
}

// Download fetches rawURL and returns the raw body bytes.
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	return f.fetch(ctx, rawURL, false)
}

// FetchDocument fetches and parses an HTML page. When snapshot is not
// empty the raw page is also written to the debug directory under that
// name. The decoded body is returned alongside the document.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL, snapshot string) (*goquery.Document, []byte, error) {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}

	if snapshot != "" {
		f.Snapshot(snapshot, body)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, body, nil
}

// Snapshot writes body to the debug directory. Failures are logged only.
func (f *Fetcher) Snapshot(name string, body []byte) {
	if f.cfg.DebugDir == "" {
		return
	}

	if err := os.MkdirAll(f.cfg.DebugDir, 0o755); err != nil {
		f.log.Warn("Failed to create debug directory", logger.Err(err))
		return
	}

	path := filepath.Join(f.cfg.DebugDir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		f.log.Warn("Failed to write debug snapshot", logger.String("path", path), logger.Err(err))
		return
	}
	f.log.Debug("HTML saved for debugging", logger.String("path", path))
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, decode bool) ([]byte, error) {
	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
	}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.cfg.RetryBackoff << (attempt - 1)
			f.log.Warn("Retrying request",
				logger.String("url", rawURL),
				logger.Int("attempt", attempt+1),
				logger.Duration("backoff", delay),
				logger.Err(lastErr),
			)
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, err := f.once(ctx, rawURL, decode)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !f.retryable(ctx, err) {
			break
		}
	}

	return nil, lastErr
}

func (f *Fetcher) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}

	return true
}

func (f *Fetcher) once(ctx context.Context, rawURL string, decode bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	var r io.Reader = resp.Body
	if decode {
		if utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type")); err == nil {
			r = utf8Reader
		}
	}

	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return body, nil
}
