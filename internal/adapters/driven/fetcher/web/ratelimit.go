package web

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// maxCooldown caps how long a Retry-After header can pause fetching.
const maxCooldown = time.Minute

// RateLimiter throttles outbound page fetches. A token bucket spaces
// requests; a Retry-After from a 429 or 503 pauses further requests to
// that fetcher until the cooldown passes.
type RateLimiter struct {
	mu       sync.Mutex
	bucket   *rate.Limiter
	cooldown time.Time
}

// NewRateLimiter allows perSecond requests per second. Zero or less disables throttling.
func NewRateLimiter(perSecond int) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	until := r.cooldown
	r.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Observe records the server's backpressure signal from a response.
func (r *RateLimiter) Observe(status int, header http.Header) {
	if status != http.StatusTooManyRequests && status != http.StatusServiceUnavailable {
		return
	}
	wait := parseRetryAfter(header.Get(HeaderRetryAfter), time.Now())
	if wait <= 0 {
		return
	}
	if wait > maxCooldown {
		wait = maxCooldown
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(wait); until.After(r.cooldown) {
		r.cooldown = until
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return t.Sub(now)
	}
	return 0
}
