package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimitedTransport retries requests that the workspace rejects with 429 Too Many
// Requests, waiting for the duration advertised in the Retry-After header.
type RateLimitedTransport struct {
	base       http.RoundTripper
	maxRetries int
}

// WithRateLimiting wraps base, or http.DefaultTransport if base is nil. A maxRetries of
// zero retries for as long as the server keeps sending Retry-After.
func WithRateLimiting(base http.RoundTripper, maxRetries int) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitedTransport{base: base, maxRetries: maxRetries}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		if t.maxRetries > 0 && attempt >= t.maxRetries {
			return resp, nil
		}

		waitDuration, ok := parseRetryAfter(resp.Header.Get("Retry-After"))
		if !ok {
			return resp, nil
		}

		err = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		log.Ctx(req.Context()).Warn().
			Str("path", req.URL.Path).
			Dur("wait", waitDuration).
			Int("attempt", attempt+1).
			Msg("rate limited by workspace")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(waitDuration):
		}
	}
}

// parseRetryAfter accepts either delay-seconds or an HTTP date. A zero delay is valid
// and means retry immediately.
func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if retryTime, err := http.ParseTime(value); err == nil {
		d := time.Until(retryTime)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
