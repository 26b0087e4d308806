// Package web fetches web pages over HTTP and reduces them to plain text.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/logger"
	"github.com/custodia-labs/pagewise/internal/normalisers"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout   = domain.DefaultFetchTimeout
	DefaultUserAgent = domain.DefaultFetchUserAgent

	// MaxBodyBytes bounds how much of a page is read.
	MaxBodyBytes = 10 << 20
)

// Config holds configuration for the web fetcher.
type Config struct {
	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// RequestsPerSecond throttles fetches. Zero disables throttling.
	RequestsPerSecond int

	// MaxBodyBytes caps how much of a response is read (default: 10 MiB).
	MaxBodyBytes int
}

// Fetcher retrieves pages with resty and normalises them to text.
type Fetcher struct {
	client     *resty.Client
	limiter    *RateLimiter
	normaliser *normalisers.Registry
}

// New creates a new web fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = MaxBodyBytes
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,text/markdown;q=0.9,text/plain;q=0.8,*/*;q=0.1").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetResponseBodyLimit(cfg.MaxBodyBytes)

	return &Fetcher{
		client:     client,
		limiter:    NewRateLimiter(cfg.RequestsPerSecond),
		normaliser: normalisers.Default(),
	}
}

// Fetch downloads rawURL and returns its text content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an http(s) URL", domain.ErrInvalidInput, rawURL)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	logger.Debug("GET %s", rawURL)
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return nil, fmt.Errorf("get %s: body exceeds %d bytes: %w", rawURL, f.client.ResponseBodyLimit, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	f.limiter.Observe(resp.StatusCode(), resp.Header())

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", rawURL, resp.StatusCode())
	}

	body := resp.Body()
	contentType := resp.Header().Get("Content-Type")
	if !f.normaliser.Supports(contentType) {
		return nil, fmt.Errorf("get %s: unsupported content type %q", rawURL, contentType)
	}

	doc, err := f.normaliser.Normalise(rawURL, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", rawURL, err)
	}
	logger.Debug("Fetched %s: %d bytes, %d characters of text", rawURL, len(body), len([]rune(doc.Content)))

	return doc, nil
}
