package util

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// DefaultHTTPClient returns the shared client used for all catalog and
// download requests. Government mirrors can be slow to first byte, hence the
// generous timeout.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

// A small rotation of realistic user agents; some of the download hosts
// reject requests with a default Go user agent.
var commonUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36",
}

// RandomUserAgent picks one of the common user agents.
func RandomUserAgent() string {
	return commonUserAgents[rand.Intn(len(commonUserAgents))]
}

// Get performs a GET with a realistic user agent and returns the body bytes.
// Non-2xx statuses are returned as errors with the body discarded.
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", RandomUserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read body %s: %w", url, readErr)
	}
	return body, nil
}
