package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/nlitsme/wikiexport"
)

// DefaultFetchTimeout is the default timeout for seed page fetches.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Fetcher implements wikiexport.Fetcher at compile time.
var _ wikiexport.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves the seed page over plain HTTP. Base-path discovery runs
// before a Site session exists, so the fetcher keeps no cookies and no pool
// of its own.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchTimeout sets the timeout for the seed fetch.
// Defaults to DefaultFetchTimeout if not specified.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithFetchUserAgent overrides the User-Agent header on the seed fetch.
func WithFetchUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// NewFetcher creates a new HTTP-based seed fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}
	return f
}

// Fetch retrieves the HTML content from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", wikiexport.Errorf(wikiexport.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
