package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// UserAgent is sent with every request.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxBodyBytes = 8 << 20

// HTTPFetcher fetches server-rendered pages.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &HTTPFetcher{client: &http.Client{Transport: tr, Timeout: timeout}}
}

// Fetch GETs url and returns the body of a successful HTML response.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("http: build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http: get %s: bad status code %d", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "html") {
		return "", fmt.Errorf("http: get %s: content type %q is not HTML", url, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("http: read %s: %w", url, err)
	}
	return string(body), nil
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
