package client

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

	"github.com/rs/zerolog"

	ierrors "github.com/tessro/interlude/internal/errors"
)

// BaseURL is the Spotify Web API base URL.
const BaseURL = "https://api.spotify.com/v1"

// Client is a Spotify Web API client. Authentication is the http.Client's
// job: pass one built from an oauth2.TokenSource. Failed requests are not
// retried; the next playback cycle is the retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger logs every request and response at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new Spotify client.
func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    BaseURL,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.request(ctx, http.MethodPut, path, body, result)
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		c.logger.Debug().Str("method", method).Str("path", path).RawJSON("body", jsonBody).Msg("spotify request")
	} else {
		c.logger.Debug().Str("method", method).Str("path", path).Msg("spotify request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("spotify response")

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Path: path}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.ErrorInfo.Message == "" {
			apiErr.ErrorInfo.Message = strings.TrimSpace(string(respBody))
		}
		apiErr.ErrorInfo.Status = resp.StatusCode
		c.logger.Debug().Str("path", path).Str("error", apiErr.ErrorInfo.Message).Msg("spotify error")
		return apiErr
	}

	if resp.StatusCode == http.StatusNoContent || result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// relative turns a paging "next" URL back into a path under the base URL.
func (c *Client) relative(next string) (string, error) {
	if strings.HasPrefix(next, c.baseURL) {
		return strings.TrimPrefix(next, c.baseURL), nil
	}
	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("invalid next page url %q: %w", next, err)
	}
	path := strings.TrimPrefix(u.Path, "/v1")
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	} `json:"error"`
	Path string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

// Unwrap maps well-known failures onto the shared sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.ErrorInfo.Status == http.StatusUnauthorized:
		return ierrors.ErrNotAuthenticated
	case e.ErrorInfo.Status == http.StatusTooManyRequests:
		return ierrors.ErrRateLimited
	case e.ErrorInfo.Status == http.StatusForbidden && e.ErrorInfo.Reason == "PREMIUM_REQUIRED":
		return ierrors.ErrPremiumRequired
	case e.ErrorInfo.Status == http.StatusNotFound && strings.HasPrefix(e.Path, "/me/player"):
		return ierrors.ErrNoActiveDevice
	}
	return nil
}

// IsNoActiveDeviceError checks if an error is a "no active device" error.
func IsNoActiveDeviceError(err error) bool {
	return errors.Is(err, ierrors.ErrNoActiveDevice)
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
