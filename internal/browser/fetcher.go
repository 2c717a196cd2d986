package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	fetchTimeout     = 15 * time.Second
	maxBodySize      = 10 << 20
	maxRedirects     = 10
	defaultUserAgent = "navsurf/0.1 (terminal browser)"
)

// ErrTooManyRedirects is returned when a fetch follows more than maxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// newTransport returns a pooled transport for one fetcher.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// FetchResult holds the raw response for one URL.
type FetchResult struct {
	URL         string
	FinalURL    string // after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Fetcher performs GET requests with browser-like headers.
type Fetcher struct {
	client    *http.Client
	transport *http.Transport
	userAgent string
}

// NewFetcher creates a Fetcher with its own connection pool.
func NewFetcher() *Fetcher {
	tr := newTransport()
	return &Fetcher{
		client: &http.Client{
			Transport: tr,
			Timeout:   fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("%w (>%d)", ErrTooManyRedirects, maxRedirects)
				}
				return nil
			},
		},
		transport: tr,
		userAgent: defaultUserAgent,
	}
}

// Fetch retrieves rawURL. The body is truncated at maxBodySize.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &FetchResult{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Duration:    time.Since(start),
	}, nil
}

// CloseIdleConnections drops pooled connections.
func (f *Fetcher) CloseIdleConnections() {
	f.transport.CloseIdleConnections()
}
