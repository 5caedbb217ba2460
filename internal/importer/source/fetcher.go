// Package source fetches record pages and project metadata from the
// remote compliance system.
//
// The transport is injected behind the Fetcher interface so the import
// pipeline never knows whether bytes came from HTTPS, a fixture file, or
// a test double.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher returns the raw response body for a URL, or a typed error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError reports a non-2xx response from the remote source.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source returned status %d for %s", e.Code, e.URL)
}

// HTTPFetcher fetches URLs over HTTP with an optional API key header.
type HTTPFetcher struct {
	client *http.Client
	apiKey string
}

// NewHTTPFetcher builds a fetcher with a per-call timeout. An empty
// apiKey sends no auth header.
func NewHTTPFetcher(apiKey string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		apiKey: apiKey,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read source response: %w", err)
	}
	return body, nil
}
