// Package workspace implements an authenticated JSON client for the workspace REST API.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/cchalm/genie-spaces/internal/config"
	"github.com/cchalm/genie-spaces/internal/rawjson"
	"github.com/cchalm/genie-spaces/internal/transport"
)

// Config holds the options for creating a Client
type Config struct {
	// Host is the workspace URL, e.g. https://adb-123.4.azuredatabricks.net
	Host        string
	Credentials Credentials
	// Timeout bounds each request, including rate limit waits (default: 60s)
	Timeout             time.Duration
	MaxRateLimitRetries int
	UserAgent           string
	// BaseTransport replaces http.DefaultTransport underneath auth and rate limiting
	BaseTransport http.RoundTripper
}

// ConfigFromSettings maps loaded settings onto a client Config
func ConfigFromSettings(ws config.Workspace, userAgent string) Config {
	return Config{
		Host: ws.Host,
		Credentials: Credentials{
			Token:        ws.Token,
			ClientID:     ws.ClientID,
			ClientSecret: ws.ClientSecret,
		},
		Timeout:             ws.HTTPTimeout,
		MaxRateLimitRetries: ws.MaxRateLimitRetries,
		UserAgent:           userAgent,
	}
}

// Client issues authenticated requests against a single workspace. It is safe for
// concurrent use.
type Client struct {
	host       string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a new workspace client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	host, err := normalizeHost(cfg.Host)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	// Token requests share the rate limited transport
	rateLimited := transport.WithRateLimiting(cfg.BaseTransport, cfg.MaxRateLimitRetries)
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: rateLimited, Timeout: timeout})
	tokenSource, err := cfg.Credentials.tokenSource(tokenCtx, host)
	if err != nil {
		return nil, err
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "genie-spaces/dev"
	}

	return &Client{
		host:      host,
		userAgent: userAgent,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: oauth2.ReuseTokenSource(nil, tokenSource), Base: rateLimited},
			Timeout:   timeout,
		},
	}, nil
}

// Host returns the normalized workspace URL
func (c *Client) Host() string {
	return c.host
}

// Do sends a JSON request to path, relative to the workspace host, and decodes a JSON
// response into result. body and result may be nil. A json.RawMessage body is sent
// byte for byte; any other body is encoded without HTML escaping. Non-2xx responses are
// returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	u := c.host + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		// Pre-encoded bodies are sent as is; encoding them again would compact raw values
		bodyReader = bytes.NewReader(b)
	default:
		encoded, err := rawjson.Encode(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return &APIError{
				StatusCode: retrieveErr.Response.StatusCode,
				ErrorCode:  retrieveErr.ErrorCode,
				Message:    fmt.Sprintf("failed to obtain access token: %s", retrieveErr.Error()),
			}
		}
		return fmt.Errorf("failed to send %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	log.Ctx(ctx).Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("workspace request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func normalizeHost(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("workspace host is required")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid workspace host '%s': %w", host, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid workspace host '%s'", host)
	}
	return u.Scheme + "://" + u.Host, nil
}
