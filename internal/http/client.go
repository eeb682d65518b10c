package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "suno-downloader"

// DefaultTimeout bounds a single request, body included.
const DefaultTimeout = 60 * time.Second

// FetchError reports a failed request for a remote resource.
//
// StatusCode holds the HTTP status for non-2xx responses and is 0 when the
// request never produced a response (DNS, connection, timeout). Err carries
// the underlying error in the latter case.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the server answered 404.
func (e *FetchError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client wraps HTTP operations with downloader-specific configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - Whole-body downloads into memory
//   - JSON decoding for API responses
//
// Every error returned by Client is a *FetchError.
//
// Example usage:
//
//	client := NewClient("", 0)
//
//	// Download an MP3 into memory
//	data, err := client.DownloadBytes(ctx, mp3URL)
//
//	// Decode an API response
//	var page dto.JSONPlaylistPage
//	err = client.GetJSON(ctx, pageURL, &page)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
//
// An empty userAgent selects DefaultUserAgent and a non-positive timeout
// selects DefaultTimeout.
func NewClient(userAgent string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Get performs a GET request and returns the response body as bytes.
//
// The request includes the configured User-Agent header.
//
// Returns a *FetchError if:
//   - The request fails
//   - The response status is not 2xx
//   - Reading the body fails
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/image.jpg")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

// GetJSON performs a GET request and decodes the JSON body into v.
//
// A body that is not valid JSON is reported as a *FetchError.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &FetchError{URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// DownloadBytes downloads a file and returns the bytes in memory.
//
// Used for both MP3s and cover art; whole files are buffered.
//
// Example:
//
//	imageData, err := client.DownloadBytes(ctx, artworkURL)
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}
